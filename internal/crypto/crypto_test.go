package crypto

import (
	"testing"

	lcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromPeerIDMatchesPublicKey(t *testing.T) {
	priv, pub, err := lcrypto.GenerateKeyPair(lcrypto.Ed25519, -1)
	require.NoError(t, err)
	pid, err := peer.IDFromPrivateKey(priv)
	require.NoError(t, err)

	fromKey, err := IdentityFromPublicKey(pub)
	require.NoError(t, err)
	fromID, err := IdentityFromPeerID(pid)
	require.NoError(t, err)
	require.Equal(t, fromKey, fromID)
	require.False(t, fromKey.IsZero())

	_, pub2, err := lcrypto.GenerateKeyPair(lcrypto.Ed25519, -1)
	require.NoError(t, err)
	other, err := IdentityFromPublicKey(pub2)
	require.NoError(t, err)
	require.NotEqual(t, fromKey, other)
}

func TestSealOpenRoundTrip(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	aead, err := PasswordAEAD("hunter2", salt)
	require.NoError(t, err)

	sealed, err := SealAEAD([]byte("secret key bytes"), aead)
	require.NoError(t, err)
	opened, err := OpenAEAD(sealed, aead)
	require.NoError(t, err)
	require.Equal(t, []byte("secret key bytes"), opened)

	wrong, err := PasswordAEAD("hunter3", salt)
	require.NoError(t, err)
	_, err = OpenAEAD(sealed, wrong)
	require.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = OpenAEAD(sealed[:5], aead)
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestPasswordChecksumDependsOnPassword(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Equal(t, PasswordChecksum("a", salt), PasswordChecksum("a", salt))
	require.NotEqual(t, PasswordChecksum("a", salt), PasswordChecksum("b", salt))
}
