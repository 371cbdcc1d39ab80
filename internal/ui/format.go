package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"relaychat/internal/chat"
	"relaychat/internal/utils"
)

// FormatLine renders a chat line with tview color tags.
func FormatLine(theme *Theme, line chat.Line, now time.Time) string {
	author := theme.Tag("secondary")
	if line.Own {
		author = theme.Tag("own-message")
	}
	return fmt.Sprintf("%s%s[-] %s%s[-] %s",
		theme.Tag("foreground-dark"), utils.FormatPrettyTime(line.Composed, now),
		author, tview.Escape(line.Author),
		tview.Escape(line.Text))
}

func FormatEvent(theme *Theme, kind chat.EventKind, subject string) string {
	subject = tview.Escape(subject)
	var text string
	switch kind {
	case chat.EventJoined:
		text = subject + " joined the room"
	case chat.EventLeft:
		text = subject + " left the room"
	case chat.EventLostConnection:
		text = "lost connection to " + subject
	case chat.EventDayChanged:
		return fmt.Sprintf("%s─── %s ───[-]", theme.Tag("foreground-dark"), subject)
	default:
		text = subject
	}
	return fmt.Sprintf("%s* %s[-]", theme.Tag("system"), text)
}

func FormatNotice(theme *Theme, text string) string {
	return theme.Tag("primary") + tview.Escape(text) + "[-]"
}

func formatListingEntry(theme *Theme, e chat.ListingEntry) string {
	switch e.Status {
	case chat.StatusSelf:
		return theme.Tag("own-message") + tview.Escape(e.Label()) + "[-]"
	case chat.StatusRelayed, chat.StatusInvitePending:
		return theme.Tag("foreground-dark") + tview.Escape(e.Label()) + "[-]"
	default:
		return tview.Escape(e.Label())
	}
}

func formatInvite(i int, inv chat.ReceivedInvite) string {
	return fmt.Sprintf("%d. %s from %s", i+1,
		utils.Truncate(inv.RoomName, 24), utils.Truncate(inv.InviterName, 16))
}
