package chat

import "relaychat/internal/utils"

var (
	ErrSenderAndTargetNonparticipant = utils.SecurityError("sender and target are not participants")
	ErrSenderNonparticipant          = utils.SecurityError("sender is not a participant")
	ErrTargetNonparticipant          = utils.SecurityError("target is not a participant")
	ErrSenderUnauthorized            = utils.SecurityError("sender is not authorized to route for target")
	ErrInviterMismatch               = utils.SecurityError("invite retracted by a peer other than the inviter")

	ErrUnknownRoom        = utils.NewRelayError("unknown room")
	ErrAlreadyInRoom      = utils.NewRelayError("already in room")
	ErrAlreadyParticipant = utils.NewRelayError("already a participant")
	ErrInvitePending      = utils.NewRelayError("invite already pending")
	ErrNoInvite           = utils.NewRelayError("no such invite")
	ErrInviteSelf         = utils.ValidationError("cannot invite yourself")
	ErrEmptyMessage       = utils.ValidationError("message is empty")
)
