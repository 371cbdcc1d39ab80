package crypto

import "relaychat/internal/utils"

var (
	ErrBadKey             = utils.SecurityError("invalid key provided")
	ErrCiphertextTooShort = utils.SecurityError("ciphertext too short")
	ErrDecryptionFailed   = utils.SecurityError("decryption failed")
)
