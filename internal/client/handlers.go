package client

import (
	"fmt"
	"log"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"relaychat/internal/chat"
	"relaychat/internal/models"
	"relaychat/internal/ui"
)

// PeerDirectory is the part of the darknet directory commands need.
type PeerDirectory interface {
	PeerByNickname(nickname string) (models.Peer, bool)
	Peers() []models.Peer
	CurrentDirectPeers() mapset.Set[models.Identity]
}

// Output is where command results go.
type Output interface {
	Notice(room uint64, text string)
	SelectRoom(room uint64)
}

// Commands executes parsed input lines against the chat service.
type Commands struct {
	Service *chat.Service
	Peers   PeerDirectory
	Out     Output
}

// Handle runs one input line typed while room was selected. Failures are
// reported to Out and returned.
func (c *Commands) Handle(room uint64, input string) error {
	cmd, err := ParseCommand(input)
	if err == nil {
		err = c.run(room, cmd)
	}
	if err != nil {
		log.Printf("[CLIENT] %q: %v", input, err)
		c.Out.Notice(room, "error: "+err.Error())
	}
	return err
}

func (c *Commands) selectedRoom(id uint64) (*chat.Room, error) {
	if id == ui.ConsoleID {
		return nil, ErrNoRoomSelected
	}
	room, ok := c.Service.Room(id)
	if !ok {
		return nil, ErrNoRoomSelected
	}
	return room, nil
}

func (c *Commands) peer(nickname string) (models.Peer, error) {
	p, ok := c.Peers.PeerByNickname(nickname)
	if !ok {
		return models.Peer{}, ErrUnknownNickname.WithDetails(nickname)
	}
	return p, nil
}

func (c *Commands) invite(n int) (chat.ReceivedInvite, error) {
	invites := c.Service.ReceivedInvites()
	if n < 1 || n > len(invites) {
		return chat.ReceivedInvite{}, ErrNoSuchInvite.WithDetails(fmt.Sprintf("%d", n))
	}
	return invites[n-1], nil
}

func (c *Commands) run(roomID uint64, cmd Command) error {
	switch cmd.Kind {
	case CmdMessage:
		room, err := c.selectedRoom(roomID)
		if err != nil {
			return err
		}
		return room.SendOwnMessage(cmd.Text)

	case CmdNew:
		room, err := c.Service.NewRoom(cmd.Text)
		if err != nil {
			return err
		}
		c.Out.SelectRoom(room.ID())
		c.Out.Notice(room.ID(), fmt.Sprintf("created room %s; /invite a peer to start", room.Name()))
		return nil

	case CmdInvite:
		room, err := c.selectedRoom(roomID)
		if err != nil {
			return err
		}
		p, err := c.peer(cmd.Text)
		if err != nil {
			return err
		}
		offered := cmd.Name
		if offered == "" {
			offered = p.Nickname
		}
		if room.NameExists(offered) {
			return ErrNameTaken.WithDetails(offered)
		}
		if err := room.SendInviteOffer(p.Identity, offered); err != nil {
			return err
		}
		c.Out.Notice(roomID, fmt.Sprintf("invited %s as %s", p.Nickname, offered))
		return nil

	case CmdRetract:
		room, err := c.selectedRoom(roomID)
		if err != nil {
			return err
		}
		p, err := c.peer(cmd.Text)
		if err != nil {
			return err
		}
		if err := room.SendInviteRetract(p.Identity); err != nil {
			return err
		}
		c.Out.Notice(roomID, "retracted invitation of "+p.Nickname)
		return nil

	case CmdAccept:
		inv, err := c.invite(cmd.Index)
		if err != nil {
			return err
		}
		room, err := c.Service.AcceptInvite(inv.RoomID)
		if err != nil {
			return err
		}
		c.Out.SelectRoom(room.ID())
		return nil

	case CmdReject:
		inv, err := c.invite(cmd.Index)
		if err != nil {
			return err
		}
		if err := c.Service.RejectInvite(inv.RoomID); err != nil {
			return err
		}
		c.Out.Notice(roomID, "rejected invitation to "+inv.RoomName)
		return nil

	case CmdLeave:
		room, err := c.selectedRoom(roomID)
		if err != nil {
			return err
		}
		if err := c.Service.LeaveRoom(room.ID()); err != nil {
			return err
		}
		c.Out.SelectRoom(ui.ConsoleID)
		c.Out.Notice(ui.ConsoleID, "left "+room.Name())
		return nil

	case CmdWho:
		room, err := c.selectedRoom(roomID)
		if err != nil {
			return err
		}
		var labels []string
		for _, e := range room.Listing() {
			labels = append(labels, e.Label())
		}
		c.Out.Notice(roomID, "in "+room.Name()+": "+strings.Join(labels, ", "))
		return nil

	case CmdPeers:
		online := c.Peers.CurrentDirectPeers()
		peers := c.Peers.Peers()
		if len(peers) == 0 {
			c.Out.Notice(roomID, "no darknet peers; add some with `relaychat peer add`")
			return nil
		}
		for _, p := range peers {
			state := "offline"
			if online.Contains(p.Identity) {
				state = "online"
			}
			c.Out.Notice(roomID, fmt.Sprintf("%s (%s) %s", p.Nickname, state, p.Identity.Short()))
		}
		return nil

	case CmdHelp:
		for _, line := range HelpLines() {
			c.Out.Notice(roomID, line)
		}
		return nil
	}
	return ErrUnknownCommand
}
