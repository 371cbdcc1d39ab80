package models

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"relaychat/internal/utils"
)

const IdentitySize = 32

// Identity is the opaque, fixed-length identifier of a node: the sha256 of its
// marshalled public key. It is a value type and compares by content.
type Identity [IdentitySize]byte

var ZeroIdentity Identity

func (id Identity) String() string {
	return base64.StdEncoding.EncodeToString(id[:])
}

// Short is an abbreviated form for logs.
func (id Identity) Short() string {
	return id.String()[:8]
}

func (id Identity) IsZero() bool {
	return id == ZeroIdentity
}

func (id Identity) Compare(other Identity) int {
	return bytes.Compare(id[:], other[:])
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseIdentity decodes the base64 form produced by String.
func ParseIdentity(s string) (Identity, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ZeroIdentity, utils.ValidationError("bad identity encoding").WithDetails(err.Error())
	}
	return IdentityFromBytes(raw)
}

func IdentityFromBytes(raw []byte) (Identity, error) {
	var id Identity
	if len(raw) != IdentitySize {
		return id, utils.ValidationError("bad identity length").
			WithDetails(fmt.Sprintf("got %d bytes, want %d", len(raw), IdentitySize))
	}
	copy(id[:], raw)
	return id, nil
}
