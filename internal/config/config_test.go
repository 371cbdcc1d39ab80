package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"relaychat/internal/utils"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)

	cfg := Defaults()
	cfg.Nickname = "ursula"
	cfg.DataDir = dir
	cfg.LogPort = 5000
	cfg.DHT = DHTConfig{Enabled: true, BootstrapPeers: []string{"/dnsaddr/bootstrap.libp2p.io"}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.WriteFile(path, []byte("nickname: wanda\nlog_port: 6000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "wanda", cfg.Nickname)
	require.Equal(t, 6000, cfg.LogPort)
	require.Equal(t, Defaults().ListenAddrs, cfg.ListenAddrs)
	require.Equal(t, Defaults().SendQueueSize, cfg.SendQueueSize)
}

func TestLoadBadYAML(t *testing.T) {
	path := Path(t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte("nickname: [unterminated\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, utils.IsConfigError(err))
}

func TestSaveRejectsNonYAMLPath(t *testing.T) {
	err := Defaults().Save(filepath.Join(t.TempDir(), "config.json"))
	require.True(t, utils.IsConfigError(err))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty nickname":   func(c *Config) { c.Nickname = "" },
		"no data dir":      func(c *Config) { c.DataDir = "" },
		"no listen addrs":  func(c *Config) { c.ListenAddrs = nil },
		"negative port":    func(c *Config) { c.LogPort = -1 },
		"port too large":   func(c *Config) { c.LogPort = 70000 },
		"zero send queue":  func(c *Config) { c.SendQueueSize = 0 },
		"zero write queue": func(c *Config) { c.PeerWriteQueue = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, utils.IsConfigError(err))
		})
	}
}
