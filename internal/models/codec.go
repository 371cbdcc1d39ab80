package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"relaychat/internal/utils"
)

// wireText carries a string as base64 of its UTF-8 bytes so names and text
// reach the other side byte for byte.
type wireText string

func (t wireText) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString([]byte(t))), nil
}

func (t *wireText) UnmarshalText(text []byte) error {
	raw, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return utils.ValidationError("bad text encoding").WithDetails(err.Error())
	}
	if !utf8.Valid(raw) {
		return utils.ValidationError("text is not valid UTF-8")
	}
	*t = wireText(raw)
	return nil
}

func textPtr(s string) *wireText {
	t := wireText(s)
	return &t
}

type chatWire struct {
	PubKeyHash   *Identity `json:"pub_key_hash,omitempty"`
	TimeComposed *int64    `json:"time_composed"`
	Text         *wireText `json:"text"`
}

type joinWire struct {
	PubKeyHash  *Identity `json:"pub_key_hash"`
	Username    *wireText `json:"username"`
	DisplayJoin *bool     `json:"display_join,omitempty"`
}

type leaveWire struct {
	PubKeyHash *Identity `json:"pub_key_hash,omitempty"`
}

type offerWire struct {
	Username *wireText `json:"username"`
	RoomName *wireText `json:"room_name"`
}

type envelopeWire struct {
	Type             MessageType     `json:"type"`
	GlobalIdentifier *uint64         `json:"global_identifier"`
	Payload          json.RawMessage `json:"payload"`
}

func missingField(name string) error {
	return utils.ValidationError("missing required field").WithDetails(name)
}

// MarshalEnvelope encodes msg for the room identified by room.
func MarshalEnvelope(room uint64, msg Message) ([]byte, error) {
	var payload any
	switch m := msg.(type) {
	case ChatMessage:
		ms := m.TimeComposed.UnixMilli()
		payload = chatWire{PubKeyHash: m.ComposedBy, TimeComposed: &ms, Text: textPtr(m.Text)}
	case JoinMessage:
		id := m.Identity
		display := m.DisplayJoin
		payload = joinWire{PubKeyHash: &id, Username: textPtr(m.Username), DisplayJoin: &display}
	case LeaveMessage:
		payload = leaveWire{PubKeyHash: m.Identity}
	case OfferInviteMessage:
		payload = offerWire{Username: textPtr(m.Username), RoomName: textPtr(m.RoomName)}
	case RetractInviteMessage, AcceptInviteMessage, RejectInviteMessage:
		payload = struct{}{}
	default:
		return nil, fmt.Errorf("unsupported message %T", msg)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	env := Envelope{
		Type:             msg.Type(),
		GlobalIdentifier: room,
		Payload:          raw,
	}
	return json.Marshal(env)
}

// UnmarshalEnvelope decodes data into its envelope and typed message. Any
// missing required field or bad encoding yields a validation error.
func UnmarshalEnvelope(data []byte) (*Envelope, Message, error) {
	var w envelopeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, nil, utils.ValidationError("malformed envelope").WithDetails(err.Error())
	}
	if w.Type == "" {
		return nil, nil, missingField("type")
	}
	if w.GlobalIdentifier == nil {
		return nil, nil, missingField("global_identifier")
	}
	env := &Envelope{Type: w.Type, GlobalIdentifier: *w.GlobalIdentifier, Payload: w.Payload}

	payload := []byte(w.Payload)
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("null")
	}
	decode := func(v any) error {
		if err := json.Unmarshal(payload, v); err != nil {
			return utils.ValidationError("malformed payload").
				WithDetails(fmt.Sprintf("%s: %v", w.Type, err))
		}
		return nil
	}

	switch w.Type {
	case MsgTypeMessage:
		var p chatWire
		if err := decode(&p); err != nil {
			return env, nil, err
		}
		if p.TimeComposed == nil {
			return env, nil, missingField("time_composed")
		}
		if p.Text == nil {
			return env, nil, missingField("text")
		}
		return env, ChatMessage{
			ComposedBy:   p.PubKeyHash,
			TimeComposed: time.UnixMilli(*p.TimeComposed),
			Text:         string(*p.Text),
		}, nil

	case MsgTypeJoin:
		var p joinWire
		if err := decode(&p); err != nil {
			return env, nil, err
		}
		if p.PubKeyHash == nil {
			return env, nil, missingField("pub_key_hash")
		}
		if p.PubKeyHash.IsZero() {
			return env, nil, ErrZeroIdentity
		}
		if p.Username == nil {
			return env, nil, missingField("username")
		}
		display := true
		if p.DisplayJoin != nil {
			display = *p.DisplayJoin
		}
		return env, JoinMessage{Identity: *p.PubKeyHash, Username: string(*p.Username), DisplayJoin: display}, nil

	case MsgTypeLeave:
		var p leaveWire
		if err := decode(&p); err != nil {
			return env, nil, err
		}
		return env, LeaveMessage{Identity: p.PubKeyHash}, nil

	case MsgTypeOfferInvite:
		var p offerWire
		if err := decode(&p); err != nil {
			return env, nil, err
		}
		if p.Username == nil {
			return env, nil, missingField("username")
		}
		if p.RoomName == nil {
			return env, nil, missingField("room_name")
		}
		return env, OfferInviteMessage{Username: string(*p.Username), RoomName: string(*p.RoomName)}, nil

	case MsgTypeRetractInvite:
		return env, RetractInviteMessage{}, nil
	case MsgTypeAcceptInvite:
		return env, AcceptInviteMessage{}, nil
	case MsgTypeRejectInvite:
		return env, RejectInviteMessage{}, nil
	default:
		return env, nil, utils.ValidationError("unknown message type").WithDetails(string(w.Type))
	}
}
