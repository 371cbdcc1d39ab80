package crypto

import (
	"crypto/cipher"
	"crypto/rand"

	"golang.org/x/crypto/argon2"
	chacha "golang.org/x/crypto/chacha20poly1305"
)

const SaltSize = 16

func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// PasswordAEAD derives the key that seals private key material.
func PasswordAEAD(pass string, salt []byte) (cipher.AEAD, error) {
	passKey := argon2.IDKey([]byte(pass), salt, 1, 64*1024, 4, chacha.KeySize)
	aead, err := chacha.New(passKey)
	if err != nil {
		return nil, ErrBadKey.WithDetails(err.Error())
	}
	return aead, nil
}

// PasswordChecksum is stored next to the sealed key to reject a wrong
// password before attempting to decrypt.
func PasswordChecksum(pass string, salt []byte) []byte {
	return argon2.IDKey([]byte(pass), salt, 3, 8*1024, 2, 32)
}
