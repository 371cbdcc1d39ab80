package models

import "time"

// Peer is a darknet peer: a node this one holds a mutually trusted link with.
type Peer struct {
	Identity Identity  `json:"identity"`
	PeerID   string    `json:"peer_id"`
	Nickname string    `json:"nickname"`
	Addrs    []string  `json:"addrs,omitempty"`
	AddedAt  time.Time `json:"added_at"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// DisplayName is the name shown for the peer when nothing better is known.
func (p Peer) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Identity.Short()
}
