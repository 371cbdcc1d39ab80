// Package ui is the terminal front end: room list, chat log, member listing,
// received invitations and an input line.
package ui

import (
	"sync/atomic"
	"time"

	"github.com/rivo/tview"

	"relaychat/internal/chat"
)

type RoomSummary struct {
	ID   uint64
	Name string
}

// Source is queried on every redraw from the UI goroutine.
type Source interface {
	Rooms() []RoomSummary
	Members(room uint64) []chat.ListingEntry
	Invites() []chat.ReceivedInvite
}

type Config struct {
	Theme    *Theme
	Nickname string
	Source   Source
	// OnInput receives every submitted input line along with the selected
	// room. It runs on its own goroutine.
	OnInput func(room uint64, text string)
	Now     func() time.Time
}

type UI struct {
	App   *tview.Application
	Theme *Theme
	Pages *tview.Pages
	Chat  *ChatScreen

	now         func() time.Time
	running     atomic.Bool
	drawPending atomic.Bool
}

func NewUI(cfg Config) *UI {
	tview.Borders.HorizontalFocus = tview.Borders.Horizontal
	tview.Borders.VerticalFocus = tview.Borders.Vertical
	tview.Borders.TopLeftFocus = '╭'
	tview.Borders.TopRightFocus = '╮'
	tview.Borders.BottomLeftFocus = '╰'
	tview.Borders.BottomRightFocus = '╯'

	if cfg.Theme == nil {
		cfg.Theme = DefaultTheme()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ui := &UI{
		App:   tview.NewApplication().EnableMouse(true),
		Theme: cfg.Theme,
		now:   cfg.Now,
	}
	tview.Styles.PrimitiveBackgroundColor = ui.Theme.GetColor("background")
	tview.Styles.TitleColor = ui.Theme.GetColor("primary")
	tview.Styles.BorderColor = ui.Theme.GetColor("border")
	tview.Styles.PrimaryTextColor = ui.Theme.GetColor("foreground")

	ui.Chat = newChatScreen(ui, cfg)
	ui.Pages = tview.NewPages().AddPage("chat", ui.Chat.layout, true, true)
	ui.App.SetRoot(ui.Pages, true).SetFocus(ui.Chat.msgInput)
	return ui
}

// Run blocks until the application exits.
func (ui *UI) Run() error {
	ui.running.Store(true)
	defer ui.running.Store(false)
	ui.Chat.render()
	return ui.App.Run()
}

func (ui *UI) Stop() {
	ui.App.Stop()
}

// queue runs f on the UI goroutine without blocking the caller.
func (ui *UI) queue(f func()) {
	if !ui.running.Load() {
		return
	}
	go ui.App.QueueUpdateDraw(f)
}

// refresh schedules one redraw; calls made while one is pending coalesce.
func (ui *UI) refresh() {
	if !ui.running.Load() || !ui.drawPending.CompareAndSwap(false, true) {
		return
	}
	ui.queue(func() {
		ui.drawPending.Store(false)
		ui.Chat.render()
	})
}

func (ui *UI) AppendLine(room uint64, line chat.Line) {
	ui.Chat.state.append(room, FormatLine(ui.Theme, line, ui.now()))
	ui.refresh()
}

func (ui *UI) AppendSystemEvent(room uint64, kind chat.EventKind, subject string) {
	ui.Chat.state.append(room, FormatEvent(ui.Theme, kind, subject))
	ui.refresh()
}

func (ui *UI) RoomsChanged() { ui.refresh() }
func (ui *UI) InvitesChanged() { ui.refresh() }

// Notice prints command output into the given room's log.
func (ui *UI) Notice(room uint64, text string) {
	ui.Chat.state.append(room, FormatNotice(ui.Theme, text))
	ui.refresh()
}

// SelectRoom switches the chat log to room.
func (ui *UI) SelectRoom(room uint64) {
	ui.Chat.state.selectRoom(room)
	ui.refresh()
}

func (ui *UI) SelectedRoom() uint64 {
	return ui.Chat.state.current()
}
