// Package chat is the room routing engine: who is in a room, which directly
// connected peer may speak for whom, and where each event has to be relayed.
package chat

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"relaychat/internal/models"
)

// Transport is the darknet peer directory rooms send through. Send only
// queues; delivery is fire-and-forget.
type Transport interface {
	Send(to models.Identity, room uint64, msg models.Message) error
	CurrentDirectPeers() mapset.Set[models.Identity]
	Peer(id models.Identity) (models.Peer, bool)
}

type EventKind int

const (
	EventJoined EventKind = iota
	EventLeft
	EventLostConnection
	EventDayChanged
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "joined"
	case EventLeft:
		return "left"
	case EventLostConnection:
		return "lost connection"
	case EventDayChanged:
		return "day changed"
	default:
		return "unknown"
	}
}

// Line is one chat message as handed to the display.
type Line struct {
	Author   string
	Identity models.Identity
	Composed time.Time
	Text     string
	Own      bool
}

// Display receives everything a room wants shown. Implementations must not
// call back into the room synchronously.
type Display interface {
	AppendLine(room uint64, line Line)
	AppendSystemEvent(room uint64, kind EventKind, subject string)
}

// Observer is notified when the set of rooms or received invites changes.
type Observer interface {
	RoomsChanged()
	InvitesChanged()
}
