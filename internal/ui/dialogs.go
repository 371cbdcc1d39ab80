package ui

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (ui *UI) showModal(page, title, message, accent string, duration time.Duration) {
	modal := tview.NewModal()
	buttonStyle := tcell.StyleDefault.
		Background(ui.Theme.GetColor("background")).
		Foreground(ui.Theme.GetColor(accent))
	buttonStyleActive := tcell.StyleDefault.
		Background(ui.Theme.GetColor(accent)).
		Foreground(ui.Theme.GetColor("background"))
	dismiss := func() {
		ui.Pages.RemovePage(page)
		ui.App.SetFocus(ui.Chat.msgInput)
	}
	modal.SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) { dismiss() }).
		SetButtonStyle(buttonStyle).
		SetButtonActivatedStyle(buttonStyleActive)
	modal.SetBackgroundColor(ui.Theme.GetColor("modal-background")).
		SetBorder(true).
		SetBorderColor(ui.Theme.GetColor(accent)).
		SetTitle(title).
		SetTitleColor(ui.Theme.GetColor(accent)).
		SetTitleAlign(tview.AlignCenter)

	ui.Pages.AddPage(page, modal, true, true)
	ui.App.SetFocus(modal)

	if duration > 0 {
		go func() {
			time.Sleep(duration)
			ui.queue(func() {
				if ui.Pages.HasPage(page) {
					dismiss()
				}
			})
		}()
	}
}

// ShowToast may be called from any goroutine except the UI one.
func (ui *UI) ShowToast(message string, duration time.Duration) {
	ui.queue(func() { ui.showModal("toast", "", message, "primary", duration) })
}

func (ui *UI) ShowError(title, message string) {
	ui.queue(func() { ui.showModal("error", title, message, "red", 0) })
}
