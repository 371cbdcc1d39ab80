// Package crypto derives node identities from libp2p keys and holds the
// password based sealing helpers used for the profile file.
package crypto

import (
	"crypto/sha256"
	"fmt"

	lcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"relaychat/internal/models"
)

// IdentityFromPublicKey hashes the protobuf encoding of pub. Every node
// derives the same identity for a peer from its authenticated key.
func IdentityFromPublicKey(pub lcrypto.PubKey) (models.Identity, error) {
	raw, err := lcrypto.MarshalPublicKey(pub)
	if err != nil {
		return models.ZeroIdentity, ErrBadKey.WithDetails(err.Error())
	}
	return models.Identity(sha256.Sum256(raw)), nil
}

// IdentityFromPeerID works for peer IDs that inline their public key, which
// is the case for ed25519 keys.
func IdentityFromPeerID(id peer.ID) (models.Identity, error) {
	pub, err := id.ExtractPublicKey()
	if err != nil {
		return models.ZeroIdentity, ErrBadKey.WithDetails(fmt.Sprintf("peer %s: %v", id, err))
	}
	return IdentityFromPublicKey(pub)
}
