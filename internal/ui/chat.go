package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type ChatScreen struct {
	*UI
	layout     *tview.Flex
	roomList   *tview.List
	inviteList *tview.List
	chatLog    *tview.TextView
	members    *tview.TextView
	msgInput   *tview.TextArea

	source    Source
	onInput   func(room uint64, text string)
	nickname  string
	state     *screenState
	roomIDs   []uint64
	rendering bool
}

func (c *ChatScreen) styleBox(box *tview.Box, title string) {
	box.SetBorder(true).
		SetTitle(fmt.Sprintf("[ %s ]", title)).
		SetTitleColor(c.Theme.GetColor("primary")).
		SetBorderColor(c.Theme.GetColor("border")).
		SetBackgroundColor(c.Theme.GetColor("background"))
}

func newChatScreen(ui *UI, cfg Config) *ChatScreen {
	c := &ChatScreen{
		UI:       ui,
		source:   cfg.Source,
		onInput:  cfg.OnInput,
		nickname: cfg.Nickname,
		state:    newScreenState(),
	}

	c.roomList = tview.NewList().ShowSecondaryText(false)
	c.roomList.SetSelectedBackgroundColor(c.Theme.GetColor("background-light")).
		SetSelectedTextColor(c.Theme.GetColor("primary")).
		SetHighlightFullLine(true)
	c.styleBox(c.roomList.Box, "rooms")
	c.roomList.SetChangedFunc(func(index int, _, _ string, _ rune) {
		if c.rendering || index < 0 || index >= len(c.roomIDs) {
			return
		}
		if id := c.roomIDs[index]; id != c.state.current() {
			c.state.selectRoom(id)
			c.render()
		}
	})

	c.inviteList = tview.NewList().ShowSecondaryText(false)
	c.inviteList.SetSelectedBackgroundColor(c.Theme.GetColor("background-light"))
	c.styleBox(c.inviteList.Box, "invitations")

	c.chatLog = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true).
		SetWordWrap(true)
	c.styleBox(c.chatLog.Box, "console")

	c.members = tview.NewTextView().SetDynamicColors(true)
	c.styleBox(c.members.Box, "members")

	c.msgInput = tview.NewTextArea().
		SetPlaceholder("Type a message or /help ...").
		SetPlaceholderStyle(tcell.StyleDefault.
			Background(c.Theme.GetColor("background")).
			Foreground(c.Theme.GetColor("foreground-dark"))).
		SetTextStyle(tcell.StyleDefault.
			Background(c.Theme.GetColor("background")).
			Foreground(c.Theme.GetColor("foreground")))
	c.msgInput.SetBorder(true).
		SetBorderColor(c.Theme.GetColor("foreground-dark"))
	c.msgInput.SetInputCapture(c.captureInput)

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.roomList, 0, 2, false).
		AddItem(c.inviteList, 0, 1, false)
	center := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.chatLog, 0, 1, false).
		AddItem(c.msgInput, 3, 0, true)
	c.layout = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(left, 24, 0, false).
		AddItem(center, 0, 1, true).
		AddItem(c.members, 28, 0, false)
	return c
}

func (c *ChatScreen) captureInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEnter:
		text := strings.TrimSpace(c.msgInput.GetText())
		c.msgInput.SetText("", false)
		if text != "" && c.onInput != nil {
			room := c.state.current()
			go c.onInput(room, text)
		}
		return nil
	case tcell.KeyTab:
		c.App.SetFocus(c.roomList)
		return nil
	}
	return event
}

// render rebuilds every widget from the source. Runs on the UI goroutine.
func (c *ChatScreen) render() {
	c.rendering = true
	defer func() { c.rendering = false }()

	var rooms []RoomSummary
	if c.source != nil {
		rooms = c.source.Rooms()
	}
	joined := make(map[uint64]bool, len(rooms))
	for _, r := range rooms {
		joined[r.ID] = true
	}
	c.state.keepSelection(joined)
	selected := c.state.current()

	c.roomIDs = c.roomIDs[:0]
	c.roomList.Clear()
	c.roomList.AddItem("console", "", 0, nil)
	c.roomIDs = append(c.roomIDs, ConsoleID)
	title := "console"
	for _, r := range rooms {
		label := tview.Escape(r.Name)
		if n := c.state.unread(r.ID); n > 0 && r.ID != selected {
			label = fmt.Sprintf("%s %s(%d)[-]", label, c.Theme.Tag("secondary"), n)
		}
		c.roomList.AddItem(label, "", 0, nil)
		c.roomIDs = append(c.roomIDs, r.ID)
		if r.ID == selected {
			title = r.Name
		}
	}
	for i, id := range c.roomIDs {
		if id == selected {
			c.roomList.SetCurrentItem(i)
		}
	}

	c.inviteList.Clear()
	if c.source != nil {
		for i, inv := range c.source.Invites() {
			c.inviteList.AddItem(tview.Escape(formatInvite(i, inv)), "", 0, nil)
		}
	}

	c.chatLog.SetTitle(fmt.Sprintf("[ %s ]", tview.Escape(title)))
	c.chatLog.SetText(strings.Join(c.state.lines(selected), "\n"))
	c.chatLog.ScrollToEnd()

	var b strings.Builder
	if selected == ConsoleID || c.source == nil {
		b.WriteString(FormatNotice(c.Theme, c.nickname))
	} else {
		for _, e := range c.source.Members(selected) {
			b.WriteString(formatListingEntry(c.Theme, e))
			b.WriteByte('\n')
		}
	}
	c.members.SetText(b.String())
}
