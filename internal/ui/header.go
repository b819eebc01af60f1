package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	appName = "recall"

	// narrowWidth is the width below which the terminal counts as narrow
	narrowWidth = 80
)

// Header is the top bar of the main view
type Header struct {
	Width       int
	SidebarOpen bool
}

// ShowHistoryTrigger reports whether the history shortcut is advertised.
// The sidebar already lists chats, and narrow terminals have no room.
func (h Header) ShowHistoryTrigger() bool {
	return h.Width >= narrowWidth && !h.SidebarOpen
}

// View renders the header on a single line
func (h Header) View() string {
	left := TitleStyle.Render(appName)

	hints := []string{
		HintStyle.Render(hint(keys.NewChat)),
		HintStyle.Render(hint(keys.Sidebar)),
	}
	if h.ShowHistoryTrigger() {
		hints = append(hints, TriggerStyle.Render(hint(keys.History)))
	}
	right := strings.Join(hints, HintStyle.Render("  "))

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
