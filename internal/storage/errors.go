package storage

import "relaychat/internal/utils"

var (
	ErrNoRows         = utils.NewRelayError("no rows in result set")
	ErrDBNotConnected = utils.NewRelayError("database not connected")
	ErrNicknameTaken  = utils.ValidationError("nickname already in use")
	ErrQueueFull      = utils.NewRelayError("peer manager write queue full")
)
