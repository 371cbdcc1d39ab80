package p2p

import "relaychat/internal/utils"

var (
	ErrNoDHT          = utils.NewRelayError("dht not enabled")
	ErrUnknownPeer    = utils.NewRelayError("peer is not in the darknet directory")
	ErrSendQueueFull  = utils.NewRelayError("send queue full")
	ErrNoAddress      = utils.NewRelayError("no known address for peer")
	ErrBadPeerAddress = utils.ValidationError("invalid peer address")
)
