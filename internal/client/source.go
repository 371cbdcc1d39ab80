package client

import (
	"relaychat/internal/chat"
	"relaychat/internal/ui"
)

// serviceSource adapts the chat service to what the screen renders.
type serviceSource struct {
	svc *chat.Service
}

func (s serviceSource) Rooms() []ui.RoomSummary {
	rooms := s.svc.Rooms()
	out := make([]ui.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, ui.RoomSummary{ID: r.ID(), Name: r.Name()})
	}
	return out
}

func (s serviceSource) Members(id uint64) []chat.ListingEntry {
	room, ok := s.svc.Room(id)
	if !ok {
		return nil
	}
	return room.Listing()
}

func (s serviceSource) Invites() []chat.ReceivedInvite {
	return s.svc.ReceivedInvites()
}
