package chat

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"relaychat/internal/models"
	"relaychat/internal/utils"
)

type RoomConfig struct {
	ID        uint64
	Name      string
	Self      models.Identity
	SelfName  string
	Transport Transport
	Display   Display
	Now       func() time.Time
}

// Room is one chat conversation. All state is guarded by mu; every inbound
// event and local action for the room passes through it.
type Room struct {
	mu sync.Mutex

	id       uint64
	name     string
	self     models.Identity
	selfName string

	registry    *Registry
	sentInvites map[models.Identity]string

	transport    Transport
	display      Display
	now          func() time.Time
	lastActivity time.Time
}

func NewRoom(cfg RoomConfig) *Room {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	r := &Room{
		id:          cfg.ID,
		name:        cfg.Name,
		self:        cfg.Self,
		selfName:    cfg.SelfName,
		registry:    NewRegistry(),
		sentInvites: make(map[models.Identity]string),
		transport:   cfg.Transport,
		display:     cfg.Display,
		now:         now,
	}
	r.lastActivity = now()
	r.emit(EventDayChanged, utils.FormatDay(r.lastActivity))
	return r
}

func (r *Room) ID() uint64 { return r.id }

func (r *Room) Name() string { return r.name }

func (r *Room) SelfName() string { return r.selfName }

func (r *Room) emit(kind EventKind, subject string) {
	if r.display != nil {
		r.display.AppendSystemEvent(r.id, kind, subject)
	}
}

func (r *Room) send(to models.Identity, msg models.Message) {
	if err := r.transport.Send(to, r.id, msg); err != nil {
		log.Printf("[ROOM] %d: send %s to %s failed: %v", r.id, msg.Type(), to.Short(), err)
	}
}

// markDayLocked emits a day-change marker when t is on a later day than the
// previous activity.
func (r *Room) markDayLocked(t time.Time) {
	if !utils.SameDay(r.lastActivity, t) && t.After(r.lastActivity) {
		r.emit(EventDayChanged, utils.FormatDay(t))
	}
	r.lastActivity = t
}

func (r *Room) addLocked(id models.Identity, name string, routedVia models.Identity, direct, invited, display bool) bool {
	if id == r.self {
		return false
	}
	if !r.registry.Add(id, name, routedVia, direct, invited) {
		return false
	}
	if display {
		r.emit(EventJoined, name)
	}
	return true
}

// authorizeLocked applies the routing rule and additionally requires target
// to be a participant.
func (r *Room) authorizeLocked(target, sender models.Identity) error {
	reason := r.registry.Authorize(target, sender)
	if reason == AuthOK && !r.registry.Contains(target) {
		reason = SenderAndTargetNonparticipant
	}
	if reason == AuthOK {
		return nil
	}
	err := reason.Err().WithDetails(fmt.Sprintf("room %d, sender %s, target %s", r.id, sender.Short(), target.Short()))
	log.Printf("[ROOM] %d: rejected event about %s from %s: %s", r.id, target.Short(), sender.Short(), reason)
	return err
}

// InviteParticipant admits a directly connected peer this node invited. The
// newcomer is announced to every direct participant and is sent a silent
// join for every existing participant.
func (r *Room) InviteParticipant(peer models.Identity, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inviteParticipantLocked(peer, name)
}

func (r *Room) inviteParticipantLocked(peer models.Identity, name string) bool {
	existing := r.registry.All()
	if !r.addLocked(peer, name, peer, true, true, true) {
		return false
	}
	for _, p := range existing {
		if p.DirectlyConnected {
			r.send(p.Identity, models.JoinMessage{Identity: peer, Username: name, DisplayJoin: true})
		}
		r.send(peer, models.JoinMessage{Identity: p.Identity, Username: p.DisplayName, DisplayJoin: false})
	}
	return true
}

// JoinedParticipant records a participant announced by routedBy and relays
// the announcement to the other direct participants. display only controls
// the local "joined" line; relayed copies always display.
func (r *Room) JoinedParticipant(id models.Identity, name string, routedBy models.Identity, display bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinedParticipantLocked(id, name, routedBy, display)
}

func (r *Room) joinedParticipantLocked(id models.Identity, name string, routedBy models.Identity, display bool) bool {
	if !r.addLocked(id, name, routedBy, id == routedBy, false, display) {
		return false
	}
	for _, p := range r.registry.DirectPeers(routedBy) {
		r.send(p, models.JoinMessage{Identity: id, Username: name, DisplayJoin: true})
	}
	return true
}

// ReceiveJoin handles a Join delivered by sender, who must already be in the
// room. The bool is false for a duplicate announcement.
func (r *Room) ReceiveJoin(id models.Identity, name string, sender models.Identity, display bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.registry.Contains(sender) {
		log.Printf("[ROOM] %d: join for %s from non-participant %s", r.id, id.Short(), sender.Short())
		return false, ErrSenderNonparticipant.WithDetails(fmt.Sprintf("room %d, sender %s", r.id, sender.Short()))
	}
	return r.joinedParticipantLocked(id, name, sender, display), nil
}

// RemoveParticipant removes target on sender's authority, along with every
// participant target was routing for, and relays a Leave for each removed
// identity to the remaining direct participants other than sender.
func (r *Room) RemoveParticipant(target, sender models.Identity, connectionProblem bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorizeLocked(target, sender); err != nil {
		return err
	}

	p, _ := r.registry.Remove(target)
	if connectionProblem {
		r.emit(EventLostConnection, p.DisplayName)
	} else {
		r.emit(EventLeft, p.DisplayName)
	}

	removed := []models.Identity{target}
	routed := r.registry.FindRoutedBy(target).ToSlice()
	sortIdentities(routed)
	for _, id := range routed {
		q, _ := r.registry.Remove(id)
		r.emit(EventLostConnection, q.DisplayName)
		removed = append(removed, id)
	}

	for _, peer := range r.registry.DirectPeers(sender) {
		for _, id := range removed {
			id := id
			r.send(peer, models.LeaveMessage{Identity: &id})
		}
	}
	return nil
}

// Disconnect tells every direct participant this node is leaving. The
// registry is left as is; the room is about to be discarded.
func (r *Room) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, peer := range r.registry.DirectPeers() {
		r.send(peer, models.LeaveMessage{})
	}
}

// ReceiveMessage shows a message composed by composedBy and delivered by
// deliveredBy, then relays it to the other direct participants.
func (r *Room) ReceiveMessage(composedBy models.Identity, composed time.Time, deliveredBy models.Identity, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorizeLocked(composedBy, deliveredBy); err != nil {
		return err
	}
	author, _ := r.registry.Get(composedBy)

	r.markDayLocked(r.now())
	if r.display != nil {
		r.display.AppendLine(r.id, Line{
			Author:   author.DisplayName,
			Identity: composedBy,
			Composed: composed,
			Text:     text,
		})
	}

	for _, peer := range r.registry.DirectPeers(deliveredBy, composedBy) {
		id := composedBy
		r.send(peer, models.ChatMessage{ComposedBy: &id, TimeComposed: composed, Text: text})
	}
	return nil
}

// SendOwnMessage shows and sends text authored locally.
func (r *Room) SendOwnMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.markDayLocked(now)
	if r.display != nil {
		r.display.AppendLine(r.id, Line{
			Author:   r.selfName,
			Identity: r.self,
			Composed: now,
			Text:     text,
			Own:      true,
		})
	}
	for _, peer := range r.registry.DirectPeers() {
		r.send(peer, models.ChatMessage{TimeComposed: now, Text: text})
	}
	return nil
}

// admitInviter seeds a room joined through an invite with the inviting peer.
func (r *Room) admitInviter(inviter models.Identity, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(inviter, name, inviter, true, false, false)
}

func (r *Room) Participant(id models.Identity) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Get(id)
}

func (r *Room) Participants() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.All()
}
