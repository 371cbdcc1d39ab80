package main

import (
	"context"
	"testing"

	lcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"

	"relaychat/internal/config"
	"relaychat/internal/profile"
	"relaychat/internal/storage"
)

func run(t *testing.T, dataDir string, args ...string) error {
	t.Helper()
	base := []string{"relaychat", "--data-dir", dataDir, "--password", "hunter2"}
	return newApp().Run(append(base, args...))
}

func TestInitWritesProfileAndConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, dir, "init", "--nickname", "ursula"))

	cfg, err := config.Load(config.Path(dir))
	require.NoError(t, err)
	require.Equal(t, "ursula", cfg.Nickname)
	require.Equal(t, dir, cfg.DataDir)

	keys, err := profile.LoadProfile(profile.DefaultPath(dir), "hunter2")
	require.NoError(t, err)
	require.False(t, keys.Identity.IsZero())

	require.NoError(t, run(t, dir, "id"))
	require.ErrorIs(t, run(t, dir, "init"), profile.ErrProfileExists)
}

func TestPeerCommands(t *testing.T) {
	dir := t.TempDir()
	_, pub, err := lcrypto.GenerateKeyPair(lcrypto.Ed25519, -1)
	require.NoError(t, err)
	pid, err := peer.IDFromPublicKey(pub)
	require.NoError(t, err)
	addr := "/ip4/127.0.0.1/tcp/4001/p2p/" + pid.String()

	require.NoError(t, run(t, dir, "peer", "add", addr, "bob"))
	require.Error(t, run(t, dir, "peer", "add", "/ip4/127.0.0.1/tcp/4001", "carol"))
	require.NoError(t, run(t, dir, "peer", "list"))

	db, err := storage.OpenPeerDB(dir, 1)
	require.NoError(t, err)
	p, err := db.Store.GetPeerByNickname(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, pid.String(), p.PeerID)
	require.Equal(t, []string{"/ip4/127.0.0.1/tcp/4001"}, p.Addrs)
	db.Close()

	require.NoError(t, run(t, dir, "peer", "remove", "bob"))
	require.ErrorIs(t, run(t, dir, "peer", "remove", "bob"), storage.ErrNoRows)
}
