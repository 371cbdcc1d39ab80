package chat

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"relaychat/internal/models"
	"relaychat/internal/utils"
)

// ReceivedInvite is an invitation into a room this node has not joined.
type ReceivedInvite struct {
	RoomID      uint64
	RoomName    string
	OfferedName string
	Inviter     models.Identity
	InviterName string
	Received    time.Time
}

type ServiceConfig struct {
	Self      models.Identity
	Nickname  string
	Transport Transport
	Display   Display
	Observer  Observer
	Now       func() time.Time
}

// Service owns every room and received invite of this node, keyed by global
// room identifier.
type Service struct {
	mu sync.RWMutex

	self      models.Identity
	nickname  string
	transport Transport
	display   Display
	observer  Observer
	now       func() time.Time

	rooms   map[uint64]*Room
	invites map[uint64]ReceivedInvite
}

func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		self:      cfg.Self,
		nickname:  cfg.Nickname,
		transport: cfg.Transport,
		display:   cfg.Display,
		observer:  cfg.Observer,
		now:       now,
		rooms:     make(map[uint64]*Room),
		invites:   make(map[uint64]ReceivedInvite),
	}
}

func (s *Service) Self() models.Identity { return s.self }

func (s *Service) Nickname() string { return s.nickname }

func (s *Service) roomsChanged() {
	if s.observer != nil {
		s.observer.RoomsChanged()
	}
}

func (s *Service) invitesChanged() {
	if s.observer != nil {
		s.observer.InvitesChanged()
	}
}

func (s *Service) newRoomLocked(id uint64, name, selfName string) *Room {
	room := NewRoom(RoomConfig{
		ID:        id,
		Name:      name,
		Self:      s.self,
		SelfName:  selfName,
		Transport: s.transport,
		Display:   s.display,
		Now:       s.now,
	})
	s.rooms[id] = room
	return room
}

func randomRoomID() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// NewRoom starts an empty room under a fresh random global identifier.
func (s *Service) NewRoom(name string) (*Room, error) {
	if err := utils.ValidateName("room name", name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	var room *Room
	for room == nil {
		id, err := randomRoomID()
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("room id: %w", err)
		}
		_, taken := s.rooms[id]
		_, invited := s.invites[id]
		if taken || invited {
			continue
		}
		room = s.newRoomLocked(id, name, s.nickname)
	}
	s.mu.Unlock()

	log.Printf("[SERVICE] created room %q (%d)", name, room.ID())
	s.roomsChanged()
	return room, nil
}

func (s *Service) Room(id uint64) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Rooms returns the joined rooms ordered by name.
func (s *Service) Rooms() []*Room {
	s.mu.RLock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name()), strings.ToLower(out[j].Name())
		if a != b {
			return a < b
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// ReceivedInvites returns the invitations awaiting a decision, oldest first.
func (s *Service) ReceivedInvites() []ReceivedInvite {
	s.mu.RLock()
	out := make([]ReceivedInvite, 0, len(s.invites))
	for _, inv := range s.invites {
		out = append(out, inv)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Received.Equal(out[j].Received) {
			return out[i].Received.Before(out[j].Received)
		}
		return out[i].RoomID < out[j].RoomID
	})
	return out
}

// HandleEnvelope decodes raw wire data delivered by from and dispatches it.
func (s *Service) HandleEnvelope(from models.Identity, data []byte) error {
	env, msg, err := models.UnmarshalEnvelope(data)
	if err != nil {
		log.Printf("[SERVICE] dropping malformed event from %s: %v", from.Short(), err)
		return err
	}
	return s.Dispatch(from, env.GlobalIdentifier, msg)
}

// Dispatch routes a decoded event from the directly connected peer from to
// the room it concerns.
func (s *Service) Dispatch(from models.Identity, roomID uint64, msg models.Message) error {
	switch m := msg.(type) {
	case models.OfferInviteMessage:
		return s.receiveOffer(from, roomID, m)
	case models.RetractInviteMessage:
		return s.receiveRetract(from, roomID)
	}

	room, ok := s.Room(roomID)
	if !ok {
		log.Printf("[SERVICE] dropping %s from %s for unknown room %d", msg.Type(), from.Short(), roomID)
		return ErrUnknownRoom.WithDetails(fmt.Sprintf("%d", roomID))
	}

	switch m := msg.(type) {
	case models.AcceptInviteMessage:
		return room.ReceiveInviteAccept(from)
	case models.RejectInviteMessage:
		return room.ReceiveInviteReject(from)
	case models.ChatMessage:
		composer := from
		if m.ComposedBy != nil {
			composer = *m.ComposedBy
		}
		return room.ReceiveMessage(composer, m.TimeComposed, from, m.Text)
	case models.JoinMessage:
		_, err := room.ReceiveJoin(m.Identity, m.Username, from, m.DisplayJoin)
		return err
	case models.LeaveMessage:
		target := from
		if m.Identity != nil {
			target = *m.Identity
		}
		return room.RemoveParticipant(target, from, false)
	default:
		return utils.ValidationError("unhandled message type").WithDetails(string(msg.Type()))
	}
}

func (s *Service) peerName(id models.Identity) string {
	if s.transport != nil {
		if p, ok := s.transport.Peer(id); ok {
			return p.DisplayName()
		}
	}
	return id.Short()
}

func (s *Service) receiveOffer(from models.Identity, roomID uint64, m models.OfferInviteMessage) error {
	inv := ReceivedInvite{
		RoomID:      roomID,
		RoomName:    m.RoomName,
		OfferedName: m.Username,
		Inviter:     from,
		InviterName: s.peerName(from),
		Received:    s.now(),
	}
	s.mu.Lock()
	if _, joined := s.rooms[roomID]; joined {
		s.mu.Unlock()
		log.Printf("[SERVICE] ignoring invite from %s to already joined room %d", from.Short(), roomID)
		return ErrAlreadyInRoom.WithDetails(fmt.Sprintf("%d", roomID))
	}
	s.invites[roomID] = inv
	s.mu.Unlock()

	log.Printf("[SERVICE] invite to %q (%d) from %s", m.RoomName, roomID, from.Short())
	s.invitesChanged()
	return nil
}

func (s *Service) receiveRetract(from models.Identity, roomID uint64) error {
	s.mu.Lock()
	inv, ok := s.invites[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrNoInvite.WithDetails(fmt.Sprintf("%d", roomID))
	}
	if inv.Inviter != from {
		s.mu.Unlock()
		log.Printf("[SERVICE] %s tried to retract an invite sent by %s", from.Short(), inv.Inviter.Short())
		return ErrInviterMismatch.WithDetails(fmt.Sprintf("%d", roomID))
	}
	delete(s.invites, roomID)
	s.mu.Unlock()

	s.invitesChanged()
	return nil
}

// AcceptInvite joins the room an invite was received for, seeding it with the
// inviter, and tells the inviter.
func (s *Service) AcceptInvite(roomID uint64) (*Room, error) {
	s.mu.Lock()
	inv, ok := s.invites[roomID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoInvite.WithDetails(fmt.Sprintf("%d", roomID))
	}
	delete(s.invites, roomID)
	if _, joined := s.rooms[roomID]; joined {
		s.mu.Unlock()
		s.invitesChanged()
		return nil, ErrAlreadyInRoom.WithDetails(fmt.Sprintf("%d", roomID))
	}
	room := s.newRoomLocked(roomID, inv.RoomName, inv.OfferedName)
	s.mu.Unlock()

	room.admitInviter(inv.Inviter, inv.InviterName)
	if err := s.transport.Send(inv.Inviter, roomID, models.AcceptInviteMessage{}); err != nil {
		log.Printf("[SERVICE] sending accept for %d failed: %v", roomID, err)
	}
	s.invitesChanged()
	s.roomsChanged()
	return room, nil
}

func (s *Service) RejectInvite(roomID uint64) error {
	s.mu.Lock()
	inv, ok := s.invites[roomID]
	if ok {
		delete(s.invites, roomID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNoInvite.WithDetails(fmt.Sprintf("%d", roomID))
	}

	if err := s.transport.Send(inv.Inviter, roomID, models.RejectInviteMessage{}); err != nil {
		log.Printf("[SERVICE] sending reject for %d failed: %v", roomID, err)
	}
	s.invitesChanged()
	return nil
}

// LeaveRoom announces departure to the room's direct participants and drops it.
func (s *Service) LeaveRoom(roomID uint64) error {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if ok {
		delete(s.rooms, roomID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrUnknownRoom.WithDetails(fmt.Sprintf("%d", roomID))
	}
	room.Disconnect()
	s.roomsChanged()
	return nil
}

// PeerDisconnected drops a darknet peer whose link went down from every room
// it was directly connected in, along with everyone it routed for.
func (s *Service) PeerDisconnected(peer models.Identity) {
	for _, room := range s.Rooms() {
		p, ok := room.Participant(peer)
		if !ok || !p.DirectlyConnected {
			continue
		}
		if err := room.RemoveParticipant(peer, peer, true); err != nil {
			log.Printf("[SERVICE] removing %s from %d: %v", peer.Short(), room.ID(), err)
		}
	}
}

// Shutdown leaves every room.
func (s *Service) Shutdown() {
	s.mu.Lock()
	rooms := s.rooms
	s.rooms = make(map[uint64]*Room)
	s.mu.Unlock()
	for _, room := range rooms {
		room.Disconnect()
	}
	if len(rooms) > 0 {
		s.roomsChanged()
	}
}
