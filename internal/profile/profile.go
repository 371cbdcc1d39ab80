// Package profile stores the node's libp2p key on disk, sealed under a
// password.
package profile

import (
	"crypto/hmac"
	"time"

	lcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"relaychat/internal/crypto"
	"relaychat/internal/models"
)

type Profile struct {
	PasswordSalt     []byte          `json:"password_salt"`
	PasswordChecksum []byte          `json:"password_checksum"`
	Libp2pPrivEnc    []byte          `json:"libp2p_priv_enc"` // encrypted w/ password
	PeerID           string          `json:"peer_id"`
	Identity         models.Identity `json:"identity"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Keys is an unlocked profile.
type Keys struct {
	Priv     lcrypto.PrivKey
	PeerID   peer.ID
	Identity models.Identity
}

// GenerateProfile creates a new ed25519 node key and writes it to path. An
// existing profile is never overwritten.
func GenerateProfile(path, pass string) (*Profile, error) {
	if pass == "" {
		return nil, ErrEmptyPassword
	}
	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	aead, err := crypto.PasswordAEAD(pass, salt)
	if err != nil {
		return nil, err
	}

	libPriv, libPub, err := lcrypto.GenerateKeyPair(lcrypto.Ed25519, -1)
	if err != nil {
		return nil, err
	}
	pid, err := peer.IDFromPrivateKey(libPriv)
	if err != nil {
		return nil, err
	}
	identity, err := crypto.IdentityFromPublicKey(libPub)
	if err != nil {
		return nil, err
	}

	libPrivBytes, err := lcrypto.MarshalPrivateKey(libPriv)
	if err != nil {
		return nil, err
	}
	libEnc, err := crypto.SealAEAD(libPrivBytes, aead)
	if err != nil {
		return nil, err
	}

	prof := &Profile{
		PasswordSalt:     salt,
		PasswordChecksum: crypto.PasswordChecksum(pass, salt),
		Libp2pPrivEnc:    libEnc,
		PeerID:           pid.String(),
		Identity:         identity,
		CreatedAt:        time.Now().UTC(),
	}
	if err := writeProfile(path, prof); err != nil {
		return nil, err
	}
	return prof, nil
}

// LoadProfile unlocks the profile at path.
func LoadProfile(path, pass string) (*Keys, error) {
	prof, err := ReadProfile(path)
	if err != nil {
		return nil, err
	}
	check := crypto.PasswordChecksum(pass, prof.PasswordSalt)
	if !hmac.Equal(check, prof.PasswordChecksum) {
		return nil, ErrInvalidPassword
	}

	aead, err := crypto.PasswordAEAD(pass, prof.PasswordSalt)
	if err != nil {
		return nil, err
	}
	libPrivBytes, err := crypto.OpenAEAD(prof.Libp2pPrivEnc, aead)
	if err != nil {
		return nil, err
	}
	libPriv, err := lcrypto.UnmarshalPrivateKey(libPrivBytes)
	if err != nil {
		return nil, err
	}
	pid, err := peer.IDFromPrivateKey(libPriv)
	if err != nil {
		return nil, err
	}
	identity, err := crypto.IdentityFromPublicKey(libPriv.GetPublic())
	if err != nil {
		return nil, err
	}
	if identity != prof.Identity {
		return nil, crypto.ErrBadKey.WithDetails("profile identity does not match its key")
	}
	return &Keys{Priv: libPriv, PeerID: pid, Identity: identity}, nil
}
