package history

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#25A065")
	colorAccent  = lipgloss.Color("#FFB347")
	colorMuted   = lipgloss.Color("#666666")
	colorDanger  = lipgloss.Color("#FF6B6B")

	dialogTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(colorPrimary).
				Padding(0, 1)

	descriptionStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)

	groupHeadingStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Bold(true)

	rowStyle = lipgloss.NewStyle()

	cursorRowStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	actionHintStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	deletePromptStyle = lipgloss.NewStyle().
				Foreground(colorDanger).
				Bold(true)

	listPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("#444444"))

	previewPaneStyle = lipgloss.NewStyle().
				PaddingLeft(2)

	emptyTitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)
)
