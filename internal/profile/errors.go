package profile

import (
	"relaychat/internal/utils"
)

var (
	ErrProfileNotFound = utils.NewRelayError("profile not found")
	ErrProfileExists   = utils.NewRelayError("profile already exists")
	ErrInvalidPassword = utils.SecurityError("invalid password")
	ErrEmptyPassword   = utils.ValidationError("password must not be empty")
)
