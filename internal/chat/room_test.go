package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relaychat/internal/models"
	"relaychat/internal/utils"
)

func TestRegistryRejectsDuplicateAdd(t *testing.T) {
	reg := NewRegistry()
	require.True(t, reg.Add(p1, "Alice", p1, true, true))
	require.False(t, reg.Add(p1, "Mallory", p4, false, false))

	p, ok := reg.Get(p1)
	require.True(t, ok)
	require.Equal(t, "Alice", p.DisplayName)
	require.Equal(t, 1, reg.Len())

	removed, ok := reg.Remove(p1)
	require.True(t, ok)
	require.Equal(t, p1, removed.Identity)
	_, ok = reg.Remove(p1)
	require.False(t, ok)
	require.False(t, reg.Contains(p1))
}

func TestRegistryFindRoutedByAndDirectPeers(t *testing.T) {
	reg := NewRegistry()
	reg.Add(p1, "Alice", p1, true, true)
	reg.Add(p2, "Bob", p1, false, false)
	reg.Add(p3, "Carol", p1, false, false)
	reg.Add(p4, "Dave", p4, true, true)

	require.True(t, idSet(p2, p3).Equal(reg.FindRoutedBy(p1)))
	require.Equal(t, 0, reg.FindRoutedBy(p4).Cardinality())
	require.True(t, idSet(p1, p4).Equal(idSet(reg.DirectPeers()...)))
	require.Equal(t, []models.Identity{p4}, reg.DirectPeers(p1))
}

func TestAuthorizeReasons(t *testing.T) {
	reg := NewRegistry()
	reg.Add(p1, "Alice", p1, true, true)
	reg.Add(p2, "Bob", p1, false, false)
	reg.Add(p4, "Dave", p4, true, true)
	stranger := ident("Y")

	cases := []struct {
		name           string
		target, sender models.Identity
		want           AuthReason
	}{
		{"router relays", p2, p1, AuthOK},
		{"direct speaks for self", p1, p1, AuthOK},
		{"self target unknown", outsider, outsider, AuthOK},
		{"wrong router", p2, p4, SenderUnauthorized},
		{"direct impersonated", p1, p4, SenderUnauthorized},
		{"unknown sender", p2, outsider, SenderNonparticipant},
		{"unknown target", stranger, p1, TargetNonparticipant},
		{"both unknown", stranger, outsider, SenderAndTargetNonparticipant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, reg.Authorize(tc.target, tc.sender))
		})
	}
}

func TestAuthorizeSoundness(t *testing.T) {
	reg := NewRegistry()
	reg.Add(p1, "Alice", p1, true, true)
	reg.Add(p2, "Bob", p1, false, false)
	reg.Add(p3, "Carol", p4, false, false)
	reg.Add(p4, "Dave", p4, true, true)

	pool := []models.Identity{selfID, p1, p2, p3, p4, outsider}
	for _, target := range pool {
		for _, sender := range pool {
			p, ok := reg.Get(target)
			want := target == sender || (ok && p.RoutedVia == sender)
			got := reg.Authorize(target, sender)
			require.Equal(t, want, got == AuthOK, "target %s sender %s", target.Short(), sender.Short())
			if !want {
				require.NotNil(t, got.Err())
				require.NotEqual(t, "ok", got.String())
			}
		}
	}
}

func TestScenarioInviteDirectPeer(t *testing.T) {
	room, tr, disp, _ := newTestRoom(t)

	require.True(t, room.InviteParticipant(p1, "Alice"))

	p, ok := room.Participant(p1)
	require.True(t, ok)
	require.Equal(t, Participant{
		Identity:          p1,
		DisplayName:       "Alice",
		RoutedVia:         p1,
		DirectlyConnected: true,
		LocallyInvited:    true,
	}, p)
	require.Empty(t, tr.take())
	require.Equal(t, []string{"Alice"}, disp.subjects(EventJoined))

	require.False(t, room.InviteParticipant(p1, "Alice"))
	require.Empty(t, tr.take())
	require.Len(t, room.Participants(), 1)
}

func TestInviteParticipantCatchesUpNewcomer(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	_, err := room.ReceiveJoin(p2, "Bob", p1, true)
	require.NoError(t, err)
	tr.take()

	require.True(t, room.InviteParticipant(p3, "Carol"))
	sends := tr.take()

	var toP1, toP3 []models.JoinMessage
	for _, s := range sends {
		require.Equal(t, uint64(42), s.Room)
		join := s.Msg.(models.JoinMessage)
		switch s.To {
		case p1:
			toP1 = append(toP1, join)
		case p3:
			toP3 = append(toP3, join)
		default:
			t.Fatalf("unexpected recipient %s", s.To.Short())
		}
	}
	require.Equal(t, []models.JoinMessage{{Identity: p3, Username: "Carol", DisplayJoin: true}}, toP1)
	require.ElementsMatch(t, []models.JoinMessage{
		{Identity: p1, Username: "Alice", DisplayJoin: false},
		{Identity: p2, Username: "Bob", DisplayJoin: false},
	}, toP3)
}

func TestScenarioRelayedJoinAndLeaveAuthorization(t *testing.T) {
	room, tr, disp, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	room.InviteParticipant(p4, "Dave")
	tr.take()

	added, err := room.ReceiveJoin(p2, "Bob", p1, true)
	require.NoError(t, err)
	require.True(t, added)

	p, ok := room.Participant(p2)
	require.True(t, ok)
	require.False(t, p.DirectlyConnected)
	require.False(t, p.LocallyInvited)
	require.Equal(t, p1, p.RoutedVia)

	sends := tr.take()
	require.True(t, idSet(p4).Equal(recipients(sends)))
	require.Equal(t, models.JoinMessage{Identity: p2, Username: "Bob", DisplayJoin: true}, sends[0].Msg)

	err = room.RemoveParticipant(p2, p4, false)
	require.ErrorIs(t, err, ErrSenderUnauthorized)
	require.Equal(t, SenderUnauthorized, ReasonOf(err))
	require.True(t, utils.IsSecurityError(err))

	err = room.RemoveParticipant(p2, outsider, false)
	require.Equal(t, SenderNonparticipant, ReasonOf(err))

	_, ok = room.Participant(p2)
	require.True(t, ok)
	require.Empty(t, tr.take())

	require.NoError(t, room.RemoveParticipant(p2, p1, false))
	_, ok = room.Participant(p2)
	require.False(t, ok)
	require.Equal(t, []string{"Bob"}, disp.subjects(EventLeft))

	sends = tr.take()
	require.Len(t, sends, 1)
	require.Equal(t, p4, sends[0].To)
	leave := sends[0].Msg.(models.LeaveMessage)
	require.Equal(t, p2, *leave.Identity)
}

func TestReceiveJoinFromNonParticipant(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	added, err := room.ReceiveJoin(p2, "Bob", outsider, true)
	require.False(t, added)
	require.ErrorIs(t, err, ErrSenderNonparticipant)
	require.Empty(t, room.Participants())
	require.Empty(t, tr.take())
}

func TestJoinedParticipantDedupAndSilentJoin(t *testing.T) {
	room, tr, disp, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	tr.take()

	require.True(t, room.JoinedParticipant(p2, "Bob", p1, false))
	require.Empty(t, disp.subjects(EventJoined)[1:])

	require.False(t, room.JoinedParticipant(p2, "Bob", p1, true))
	require.False(t, room.JoinedParticipant(selfID, "Ursula", p1, true))
	require.Empty(t, tr.take())
	require.Len(t, room.Participants(), 2)
}

func TestScenarioRouterLostCascades(t *testing.T) {
	room, tr, disp, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	room.InviteParticipant(p4, "Dave")
	_, err := room.ReceiveJoin(p2, "Bob", p1, true)
	require.NoError(t, err)
	tr.take()

	require.NoError(t, room.RemoveParticipant(p1, p1, true))

	require.Equal(t, []string{"Alice", "Bob"}, disp.subjects(EventLostConnection))
	_, ok := room.Participant(p1)
	require.False(t, ok)
	_, ok = room.Participant(p2)
	require.False(t, ok)
	require.Len(t, room.Participants(), 1)

	sends := tr.take()
	require.True(t, idSet(p4).Equal(recipients(sends)))
	var leaving []models.Identity
	for _, s := range sends {
		leaving = append(leaving, *s.Msg.(models.LeaveMessage).Identity)
	}
	require.ElementsMatch(t, []models.Identity{p1, p2}, leaving)
}

func TestRemoveParticipantNotInRoom(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	tr.take()

	err := room.RemoveParticipant(outsider, outsider, false)
	require.Equal(t, SenderAndTargetNonparticipant, ReasonOf(err))
	err = room.RemoveParticipant(p3, p1, false)
	require.Equal(t, TargetNonparticipant, ReasonOf(err))
	require.Len(t, room.Participants(), 1)
	require.Empty(t, tr.take())
}

func TestMessagePropagationExcludesSender(t *testing.T) {
	room, tr, disp, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	room.InviteParticipant(p4, "Dave")
	_, err := room.ReceiveJoin(p2, "Bob", p1, true)
	require.NoError(t, err)
	tr.take()

	composed := time.UnixMilli(1709287200000)
	require.NoError(t, room.ReceiveMessage(p2, composed, p1, "hi from bob"))

	sends := tr.take()
	require.True(t, idSet(p4).Equal(recipients(sends)))
	msg := sends[0].Msg.(models.ChatMessage)
	require.Equal(t, p2, *msg.ComposedBy)
	require.Equal(t, "hi from bob", msg.Text)
	require.True(t, composed.Equal(msg.TimeComposed))
	require.Equal(t, []string{"hi from bob"}, disp.texts())

	require.NoError(t, room.ReceiveMessage(p1, composed, p1, "hi from alice"))
	require.True(t, idSet(p4).Equal(recipients(tr.take())))

	err = room.ReceiveMessage(p2, composed, p4, "spoofed")
	require.ErrorIs(t, err, ErrSenderUnauthorized)
	require.Empty(t, tr.take())
	require.Equal(t, []string{"hi from bob", "hi from alice"}, disp.texts())
}

func TestSendOwnMessage(t *testing.T) {
	room, tr, disp, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	room.InviteParticipant(p4, "Dave")
	room.JoinedParticipant(p2, "Bob", p1, true)
	tr.take()

	require.NoError(t, room.SendOwnMessage("hello"))
	sends := tr.take()
	require.True(t, idSet(p1, p4).Equal(recipients(sends)))
	for _, s := range sends {
		msg := s.Msg.(models.ChatMessage)
		require.Nil(t, msg.ComposedBy)
		require.Equal(t, "hello", msg.Text)
	}
	require.True(t, disp.lines[0].Own)
	require.Equal(t, "Ursula", disp.lines[0].Author)

	require.ErrorIs(t, room.SendOwnMessage("   "), ErrEmptyMessage)
	require.Empty(t, tr.take())
}

func TestDisconnectSendsAnonymousLeave(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	room.InviteParticipant(p4, "Dave")
	room.JoinedParticipant(p2, "Bob", p1, true)
	tr.take()

	room.Disconnect()
	sends := tr.take()
	require.True(t, idSet(p1, p4).Equal(recipients(sends)))
	for _, s := range sends {
		require.Equal(t, models.LeaveMessage{}, s.Msg)
	}
	require.Len(t, room.Participants(), 3)
}

func TestScenarioDuplicateInviteOffer(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)

	require.NoError(t, room.SendInviteOffer(p3, "Bob"))
	err := room.SendInviteOffer(p3, "Bob")
	require.ErrorIs(t, err, ErrInvitePending)

	require.Equal(t, map[models.Identity]string{p3: "Bob"}, room.PendingInvites())
	sends := tr.take()
	require.Len(t, sends, 1)
	require.Equal(t, models.OfferInviteMessage{Username: "Bob", RoomName: "R"}, sends[0].Msg)
	require.Empty(t, room.Participants())
}

func TestInviteOperationsWithoutPendingInvite(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)

	require.ErrorIs(t, room.SendInviteRetract(p3), ErrNoInvite)
	require.ErrorIs(t, room.ReceiveInviteAccept(p3), ErrNoInvite)
	require.ErrorIs(t, room.ReceiveInviteReject(p3), ErrNoInvite)
	require.ErrorIs(t, room.SendInviteOffer(selfID, "me"), ErrInviteSelf)
	require.Empty(t, tr.take())
	require.Empty(t, room.Participants())
	require.Empty(t, room.PendingInvites())
}

func TestInviteAcceptAdmitsOfferedName(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	require.NoError(t, room.SendInviteOffer(p3, "Carol"))
	tr.take()

	require.NoError(t, room.ReceiveInviteAccept(p3))
	p, ok := room.Participant(p3)
	require.True(t, ok)
	require.Equal(t, "Carol", p.DisplayName)
	require.True(t, p.LocallyInvited)
	require.Empty(t, room.PendingInvites())
	require.True(t, idSet(p1, p3).Equal(recipients(tr.take())))

	require.ErrorIs(t, room.ReceiveInviteAccept(p3), ErrNoInvite)
}

func TestInviteAcceptClearsPendingEvenWhenAlreadyPresent(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	require.NoError(t, room.SendInviteOffer(p2, "Bob"))
	room.JoinedParticipant(p2, "Bob", p1, true)
	tr.take()

	err := room.ReceiveInviteAccept(p2)
	require.ErrorIs(t, err, ErrAlreadyParticipant)
	require.Empty(t, room.PendingInvites())
	require.Empty(t, tr.take())
}

func TestInviteRetractAndReject(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	require.NoError(t, room.SendInviteOffer(p3, "Carol"))
	require.NoError(t, room.SendInviteRetract(p3))
	require.Empty(t, room.PendingInvites())
	sends := tr.take()
	require.Len(t, sends, 2)
	require.Equal(t, models.RetractInviteMessage{}, sends[1].Msg)

	require.NoError(t, room.SendInviteOffer(p3, "Carol"))
	tr.take()
	require.NoError(t, room.ReceiveInviteReject(p3))
	require.Empty(t, room.PendingInvites())
	require.Empty(t, room.Participants())
	require.Empty(t, tr.take())
}

func TestSendInviteOfferToParticipant(t *testing.T) {
	room, _, _, _ := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	err := room.SendInviteOffer(p1, "Alice")
	require.True(t, errors.Is(err, ErrAlreadyParticipant))
	require.Empty(t, room.PendingInvites())
}

func TestListingNameExistsAndInvitablePeers(t *testing.T) {
	room, tr, _, _ := newTestRoom(t)
	tr.addPeer(p1, "alice")
	tr.addPeer(p3, "carol")
	tr.addPeer(p4, "dave")
	tr.addPeer(outsider, "Xena")

	room.InviteParticipant(p1, "alice")
	room.JoinedParticipant(p2, "Bob", p1, true)
	require.NoError(t, room.SendInviteOffer(p3, "carol"))

	var labels []string
	for _, e := range room.Listing() {
		labels = append(labels, e.Label())
	}
	require.Equal(t, []string{"alice", "Bob (via alice)", "carol (invite pending)", "Ursula (you)"}, labels)

	require.True(t, room.NameExists("Bob"))
	require.True(t, room.NameExists("carol"))
	require.True(t, room.NameExists("Ursula"))
	require.False(t, room.NameExists("bob"))

	var names []string
	for _, p := range room.InvitablePeers() {
		names = append(names, p.Nickname)
	}
	require.Equal(t, []string{"dave", "Xena"}, names)
}

func TestDayChangeMarker(t *testing.T) {
	room, _, disp, clk := newTestRoom(t)
	room.InviteParticipant(p1, "Alice")
	require.Len(t, disp.subjects(EventDayChanged), 1)

	require.NoError(t, room.SendOwnMessage("morning"))
	require.Len(t, disp.subjects(EventDayChanged), 1)

	clk.Advance(24 * time.Hour)
	require.NoError(t, room.ReceiveMessage(p1, clk.Now(), p1, "next day"))
	days := disp.subjects(EventDayChanged)
	require.Len(t, days, 2)
	require.Equal(t, utils.FormatDay(clk.Now()), days[1])
}
