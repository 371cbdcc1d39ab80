// Package models defines the identities, peers and wire messages shared by the
// routing core, the transport and the UI.
package models

import (
	"encoding/json"
	"time"
)

// MessageType indicates which kind of payload lives inside the Envelope.
type MessageType string

const (
	MsgTypeMessage       MessageType = "message"
	MsgTypeOfferInvite   MessageType = "offer_invite"
	MsgTypeRetractInvite MessageType = "retract_invite"
	MsgTypeAcceptInvite  MessageType = "accept_invite"
	MsgTypeRejectInvite  MessageType = "reject_invite"
	MsgTypeJoin          MessageType = "join"
	MsgTypeLeave         MessageType = "leave"
)

type Message interface {
	Type() MessageType
}

// ChatMessage carries text typed by a participant. A nil ComposedBy means the
// author is the peer that delivered it.
type ChatMessage struct {
	ComposedBy   *Identity
	TimeComposed time.Time
	Text         string
}

func (ChatMessage) Type() MessageType { return MsgTypeMessage }

// JoinMessage announces a participant. DisplayJoin false asks the receiver not
// to print a "joined" line, used when catching a new member up.
type JoinMessage struct {
	Identity    Identity
	Username    string
	DisplayJoin bool
}

func (JoinMessage) Type() MessageType { return MsgTypeJoin }

// LeaveMessage signals a departure. A nil Identity means the delivering peer.
type LeaveMessage struct {
	Identity *Identity
}

func (LeaveMessage) Type() MessageType { return MsgTypeLeave }

// OfferInviteMessage invites the receiver into a room under Username.
type OfferInviteMessage struct {
	Username string
	RoomName string
}

func (OfferInviteMessage) Type() MessageType { return MsgTypeOfferInvite }

type RetractInviteMessage struct{}

func (RetractInviteMessage) Type() MessageType { return MsgTypeRetractInvite }

type AcceptInviteMessage struct{}

func (AcceptInviteMessage) Type() MessageType { return MsgTypeAcceptInvite }

type RejectInviteMessage struct{}

func (RejectInviteMessage) Type() MessageType { return MsgTypeRejectInvite }

// Envelope wraps any Message with the room it concerns.
type Envelope struct {
	Type             MessageType     `json:"type"`
	GlobalIdentifier uint64          `json:"global_identifier"`
	Payload          json.RawMessage `json:"payload,omitempty"`
}
