package models

import "relaychat/internal/utils"

var ErrZeroIdentity = utils.ValidationError("identity is all zeroes")
