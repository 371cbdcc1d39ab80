package chat

import (
	"sort"
	"strings"

	"relaychat/internal/models"
)

type ListingStatus int

const (
	StatusSelf ListingStatus = iota
	StatusDirect
	StatusRelayed
	StatusInvitePending
)

// ListingEntry is the displayable projection of a room member or invitee.
type ListingEntry struct {
	Name     string
	Identity models.Identity
	Status   ListingStatus
	Via      string
}

func (e ListingEntry) Label() string {
	switch e.Status {
	case StatusSelf:
		return e.Name + " (you)"
	case StatusRelayed:
		return e.Name + " (via " + e.Via + ")"
	case StatusInvitePending:
		return e.Name + " (invite pending)"
	default:
		return e.Name
	}
}

// Listing returns self, participants and pending invitees sorted by name,
// ignoring case.
func (r *Room) Listing() []ListingEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []ListingEntry{{Name: r.selfName, Identity: r.self, Status: StatusSelf}}
	for _, p := range r.registry.All() {
		e := ListingEntry{Name: p.DisplayName, Identity: p.Identity, Status: StatusDirect}
		if !p.DirectlyConnected {
			e.Status = StatusRelayed
			e.Via = p.RoutedVia.Short()
			if router, ok := r.registry.Get(p.RoutedVia); ok {
				e.Via = router.DisplayName
			}
		}
		out = append(out, e)
	}
	for id, name := range r.sentInvites {
		out = append(out, ListingEntry{Name: name, Identity: id, Status: StatusInvitePending})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Identity.Compare(out[j].Identity) < 0
	})
	return out
}

// NameExists reports whether name is already used by this node, a
// participant or a pending invitee.
func (r *Room) NameExists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selfName == name {
		return true
	}
	for _, p := range r.registry.All() {
		if p.DisplayName == name {
			return true
		}
	}
	for _, invited := range r.sentInvites {
		if invited == name {
			return true
		}
	}
	return false
}

// InvitablePeers lists the currently connected darknet peers that are
// neither in the room nor already invited.
func (r *Room) InvitablePeers() []models.Peer {
	direct := r.transport.CurrentDirectPeers()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Peer
	for _, id := range direct.ToSlice() {
		if id == r.self || r.registry.Contains(id) {
			continue
		}
		if _, pending := r.sentInvites[id]; pending {
			continue
		}
		p, ok := r.transport.Peer(id)
		if !ok {
			p = models.Peer{Identity: id}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName()) < strings.ToLower(out[j].DisplayName())
	})
	return out
}
