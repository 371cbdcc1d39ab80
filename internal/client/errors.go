package client

import "relaychat/internal/utils"

var (
	ErrUnknownCommand  = utils.ValidationError("unknown command")
	ErrUsage           = utils.ValidationError("usage")
	ErrMessageTooLong  = utils.ValidationError("message exceeds maximum length")
	ErrNoRoomSelected  = utils.NewRelayError("no room selected")
	ErrUnknownNickname = utils.NewRelayError("no darknet peer with that nickname")
	ErrNoSuchInvite    = utils.NewRelayError("no invitation with that number")
	ErrNameTaken       = utils.NewRelayError("name already used in this room")
)
