package client

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const MaxMessageLength = 10000

type CommandKind int

const (
	CmdMessage CommandKind = iota
	CmdNew
	CmdInvite
	CmdRetract
	CmdAccept
	CmdReject
	CmdLeave
	CmdWho
	CmdPeers
	CmdHelp
)

// Command is one parsed input line.
type Command struct {
	Kind CommandKind
	// Text is the message body, the room name for /new, or the nickname for
	// /invite and /retract.
	Text string
	// Name is the optional offered display name for /invite.
	Name string
	// Index is the 1-based invitation number for /accept and /reject.
	Index int
}

type commandSpec struct {
	kind  CommandKind
	usage string
}

var commands = map[string]commandSpec{
	"new":     {CmdNew, "/new <room name>"},
	"invite":  {CmdInvite, "/invite <nickname> [offered name]"},
	"retract": {CmdRetract, "/retract <nickname>"},
	"accept":  {CmdAccept, "/accept <n>"},
	"reject":  {CmdReject, "/reject <n>"},
	"leave":   {CmdLeave, "/leave"},
	"who":     {CmdWho, "/who"},
	"peers":   {CmdPeers, "/peers"},
	"help":    {CmdHelp, "/help"},
}

// HelpLines lists every command's usage, in display order.
func HelpLines() []string {
	order := []string{"new", "invite", "retract", "accept", "reject", "leave", "who", "peers", "help"}
	out := make([]string, 0, len(order)+1)
	for _, name := range order {
		out = append(out, commands[name].usage)
	}
	return append(out, "anything else is sent to the selected room; start with // to send a literal /")
}

// ParseCommand interprets an input line. Lines not starting with "/" are chat
// messages.
func ParseCommand(input string) (Command, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || strings.HasPrefix(input, "//") {
		text := input
		if strings.HasPrefix(input, "//") {
			text = input[1:]
		}
		if utf8.RuneCountInString(text) > MaxMessageLength {
			return Command{}, ErrMessageTooLong
		}
		return Command{Kind: CmdMessage, Text: text}, nil
	}

	name, rest, _ := strings.Cut(input[1:], " ")
	rest = strings.TrimSpace(rest)
	spec, ok := commands[strings.ToLower(name)]
	if !ok {
		return Command{}, ErrUnknownCommand.WithDetails("/" + name)
	}
	usage := ErrUsage.WithDetails(spec.usage)
	cmd := Command{Kind: spec.kind}

	switch spec.kind {
	case CmdNew:
		if rest == "" {
			return Command{}, usage
		}
		cmd.Text = rest
	case CmdInvite:
		nick, offered, _ := strings.Cut(rest, " ")
		if nick == "" {
			return Command{}, usage
		}
		cmd.Text = nick
		cmd.Name = strings.TrimSpace(offered)
	case CmdRetract:
		if rest == "" || strings.Contains(rest, " ") {
			return Command{}, usage
		}
		cmd.Text = rest
	case CmdAccept, CmdReject:
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Command{}, usage
		}
		cmd.Index = n
	default:
		if rest != "" {
			return Command{}, usage
		}
	}
	return cmd, nil
}
