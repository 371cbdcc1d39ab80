package crypto

import (
	"crypto/cipher"
	"crypto/rand"
)

// SealAEAD encrypts data under a fresh random nonce and prepends the nonce.
func SealAEAD(data []byte, aead cipher.AEAD) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nonce, nonce, data, nil)
	return ct, nil
}

func OpenAEAD(encData []byte, aead cipher.AEAD) ([]byte, error) {
	if len(encData) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce := encData[:aead.NonceSize()]
	pt, err := aead.Open(nil, nonce, encData[aead.NonceSize():], nil)
	if err != nil {
		return nil, ErrDecryptionFailed.WithDetails(err.Error())
	}
	return pt, nil
}
