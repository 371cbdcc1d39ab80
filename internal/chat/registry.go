package chat

import (
	"errors"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"relaychat/internal/models"
	"relaychat/internal/utils"
)

// Participant is an identity known to be present in a room.
type Participant struct {
	Identity    models.Identity
	DisplayName string
	// RoutedVia is the directly connected peer allowed to originate or relay
	// events about this participant. Equal to Identity when DirectlyConnected.
	RoutedVia         models.Identity
	DirectlyConnected bool
	LocallyInvited    bool
}

// Registry maps participant identities to their routing record. It is not
// safe for concurrent use; Room serializes access.
type Registry struct {
	participants map[models.Identity]Participant
}

func NewRegistry() *Registry {
	return &Registry{participants: make(map[models.Identity]Participant)}
}

// Add inserts a participant and reports false if the identity is already present.
func (r *Registry) Add(id models.Identity, name string, routedVia models.Identity, direct, locallyInvited bool) bool {
	if _, ok := r.participants[id]; ok {
		return false
	}
	r.participants[id] = Participant{
		Identity:          id,
		DisplayName:       name,
		RoutedVia:         routedVia,
		DirectlyConnected: direct,
		LocallyInvited:    locallyInvited,
	}
	return true
}

func (r *Registry) Remove(id models.Identity) (Participant, bool) {
	p, ok := r.participants[id]
	if ok {
		delete(r.participants, id)
	}
	return p, ok
}

func (r *Registry) Contains(id models.Identity) bool {
	_, ok := r.participants[id]
	return ok
}

func (r *Registry) Get(id models.Identity) (Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

func (r *Registry) Len() int {
	return len(r.participants)
}

// FindRoutedBy returns every participant whose router is router, excluding
// router itself.
func (r *Registry) FindRoutedBy(router models.Identity) mapset.Set[models.Identity] {
	set := mapset.NewThreadUnsafeSet[models.Identity]()
	for id, p := range r.participants {
		if p.RoutedVia == router && id != router {
			set.Add(id)
		}
	}
	return set
}

// DirectPeers lists directly connected participants not in except, in
// identity order.
func (r *Registry) DirectPeers(except ...models.Identity) []models.Identity {
	skip := mapset.NewThreadUnsafeSet(except...)
	out := make([]models.Identity, 0, len(r.participants))
	for id, p := range r.participants {
		if p.DirectlyConnected && !skip.Contains(id) {
			out = append(out, id)
		}
	}
	sortIdentities(out)
	return out
}

// All returns a snapshot of every participant in identity order.
func (r *Registry) All() []Participant {
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity.Compare(out[j].Identity) < 0
	})
	return out
}

func sortIdentities(ids []models.Identity) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
}

type AuthReason int

const (
	AuthOK AuthReason = iota
	SenderAndTargetNonparticipant
	SenderNonparticipant
	TargetNonparticipant
	SenderUnauthorized
)

func (r AuthReason) String() string {
	switch r {
	case AuthOK:
		return "ok"
	case SenderAndTargetNonparticipant:
		return "senderAndTargetNonparticipant"
	case SenderNonparticipant:
		return "senderNonparticipant"
	case TargetNonparticipant:
		return "targetNonparticipant"
	case SenderUnauthorized:
		return "senderUnauthorized"
	default:
		return "unknown"
	}
}

// Err maps a failure reason to its sentinel error; AuthOK maps to nil.
func (r AuthReason) Err() *utils.RelayError {
	switch r {
	case SenderAndTargetNonparticipant:
		return ErrSenderAndTargetNonparticipant
	case SenderNonparticipant:
		return ErrSenderNonparticipant
	case TargetNonparticipant:
		return ErrTargetNonparticipant
	case SenderUnauthorized:
		return ErrSenderUnauthorized
	default:
		return nil
	}
}

// ReasonOf recovers the AuthReason carried by an error returned from a room
// operation. Errors that are not authorization failures yield AuthOK.
func ReasonOf(err error) AuthReason {
	for _, r := range []AuthReason{SenderAndTargetNonparticipant, SenderNonparticipant, TargetNonparticipant, SenderUnauthorized} {
		if errors.Is(err, r.Err()) {
			return r
		}
	}
	return AuthOK
}

// Authorize decides whether sender may deliver an event about target: either
// target speaks for itself, or sender is target's registered router.
func (r *Registry) Authorize(target, sender models.Identity) AuthReason {
	if target == sender {
		return AuthOK
	}
	p, targetKnown := r.participants[target]
	if targetKnown && p.RoutedVia == sender {
		return AuthOK
	}
	_, senderKnown := r.participants[sender]
	switch {
	case !targetKnown && !senderKnown:
		return SenderAndTargetNonparticipant
	case !targetKnown:
		return TargetNonparticipant
	case !senderKnown:
		return SenderNonparticipant
	default:
		return SenderUnauthorized
	}
}
