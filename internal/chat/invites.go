package chat

import (
	"fmt"
	"log"

	"relaychat/internal/models"
)

// SendInviteOffer invites a directly connected peer into the room under
// offeredName. Only one invite per peer may be outstanding.
func (r *Room) SendInviteOffer(peer models.Identity, offeredName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if peer == r.self {
		return ErrInviteSelf
	}
	if _, ok := r.sentInvites[peer]; ok {
		return ErrInvitePending.WithDetails(peer.Short())
	}
	if r.registry.Contains(peer) {
		return ErrAlreadyParticipant.WithDetails(peer.Short())
	}
	r.sentInvites[peer] = offeredName
	r.send(peer, models.OfferInviteMessage{Username: offeredName, RoomName: r.name})
	log.Printf("[ROOM] %d: sent invite offer to %s as %q", r.id, peer.Short(), offeredName)
	return nil
}

func (r *Room) SendInviteRetract(peer models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sentInvites[peer]; !ok {
		return ErrNoInvite.WithDetails(peer.Short())
	}
	delete(r.sentInvites, peer)
	r.send(peer, models.RetractInviteMessage{})
	log.Printf("[ROOM] %d: retracted invite to %s", r.id, peer.Short())
	return nil
}

// ReceiveInviteAccept admits peer under the name it was offered. The pending
// invite is cleared whether or not admission succeeds.
func (r *Room) ReceiveInviteAccept(peer models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.sentInvites[peer]
	if !ok {
		return ErrNoInvite.WithDetails(fmt.Sprintf("accept from %s", peer.Short()))
	}
	defer delete(r.sentInvites, peer)
	if !r.inviteParticipantLocked(peer, name) {
		return ErrAlreadyParticipant.WithDetails(peer.Short())
	}
	return nil
}

func (r *Room) ReceiveInviteReject(peer models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sentInvites[peer]; !ok {
		return ErrNoInvite.WithDetails(fmt.Sprintf("reject from %s", peer.Short()))
	}
	delete(r.sentInvites, peer)
	log.Printf("[ROOM] %d: %s rejected the invite", r.id, peer.Short())
	return nil
}

// PendingInvites returns a copy of the invites sent and not yet resolved.
func (r *Room) PendingInvites() map[models.Identity]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[models.Identity]string, len(r.sentInvites))
	for id, name := range r.sentInvites {
		out[id] = name
	}
	return out
}
