package history

import (
	"fmt"
	"strings"

	"recall/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	headerLines = 3 // title, search box, spacer
	footerLines = 1
)

type listLine struct {
	heading string
	index   int // into visible; -1 for headings
}

func (d *Dialog) bodyHeight() int {
	return max(d.height-headerLines-footerLines, 1)
}

// searchEmptyInPreview is true when a search matched nothing and the preview
// pane is shown; the preview then takes the whole width.
func (d *Dialog) searchEmptyInPreview() bool {
	return d.showPreview && d.search.Value() != "" && len(d.visible) == 0
}

func (d *Dialog) listWidth() int {
	switch {
	case d.searchEmptyInPreview():
		return 0
	case d.showPreview:
		return max(d.width/3, 20)
	default:
		return d.width
	}
}

func (d *Dialog) previewWidth() int {
	if !d.showPreview {
		return 0
	}
	if d.searchEmptyInPreview() {
		return d.width
	}
	return max(d.width-d.listWidth()-1, 10)
}

func (d *Dialog) lines() []listLine {
	if d.search.Value() != "" {
		out := make([]listLine, len(d.visible))
		for i := range d.visible {
			out[i] = listLine{index: i}
		}
		return out
	}

	var out []listLine
	i := 0
	for _, g := range d.groups {
		out = append(out, listLine{heading: g.Label, index: -1})
		for range g.Chats {
			out = append(out, listLine{index: i})
			i++
		}
	}
	return out
}

func (d *Dialog) ensureCursorVisible() {
	lines := d.lines()
	h := d.bodyHeight()
	for li, l := range lines {
		if l.index != d.cursor {
			continue
		}
		// keep the group heading above the first row on screen
		top := li
		if li > 0 && lines[li-1].index == -1 {
			top = li - 1
		}
		if top < d.offset {
			d.offset = top
		}
		if li >= d.offset+h {
			d.offset = li - h + 1
		}
		break
	}
	d.offset = clamp(d.offset, 0, max(len(lines)-h, 0))
}

// rowAt maps screen coordinates to an index into the visible chats
func (d *Dialog) rowAt(x, y int) (int, bool) {
	if x >= d.listWidth() {
		return 0, false
	}
	li := y - headerLines + d.offset
	if y < headerLines || y >= headerLines+d.bodyHeight() {
		return 0, false
	}
	lines := d.lines()
	if li < 0 || li >= len(lines) || lines[li].index < 0 {
		return 0, false
	}
	return lines[li].index, true
}

func (d *Dialog) resizePreview() {
	d.viewport.Width = max(d.previewWidth()-2, 1)
	d.viewport.Height = d.bodyHeight()
	d.refreshPreview()
}

func (d *Dialog) refreshPreview() {
	msgs := d.preview.Messages()
	if len(msgs) == 0 {
		d.viewport.SetContent("")
		return
	}
	width := max(d.viewport.Width-2, 10)
	var b strings.Builder
	for _, m := range msgs {
		label := userStyle.Render(roleLabel(m.Role))
		if m.Role != models.RoleUser {
			label = assistantStyle.Render(roleLabel(m.Role))
		}
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(dateStyle.Render("[" + m.CreatedAt.Local().Format("15:04:05") + "]"))
		b.WriteString("\n")
		b.WriteString(wordwrap.String(m.Content, width))
		b.WriteString("\n\n")
	}
	d.viewport.SetContent(b.String())
	d.viewport.GotoTop()
}

func roleLabel(role string) string {
	switch role {
	case models.RoleUser:
		return "You"
	case models.RoleSystem:
		return "System"
	default:
		return "Assistant"
	}
}

// View renders the dialog
func (d *Dialog) View() string {
	if !d.open {
		return ""
	}

	title := dialogTitleStyle.Render("Chat History") + " " +
		descriptionStyle.Render("Search through your past conversations")
	header := lipgloss.JoinVertical(lipgloss.Left, title, d.search.View(), "")

	h := d.bodyHeight()
	var panes []string
	if w := d.listWidth(); w > 0 {
		style := lipgloss.NewStyle()
		if d.showPreview {
			style = listPaneStyle
		}
		panes = append(panes, style.Width(w).Height(h).MaxHeight(h).Render(d.renderList(w)))
	}
	if w := d.previewWidth(); w > 0 {
		panes = append(panes, previewPaneStyle.Width(w).Height(h).MaxHeight(h).Render(d.renderPreview(w-2)))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, d.renderFooter())
}

func (d *Dialog) renderList(width int) string {
	if len(d.visible) == 0 && !d.showPreview {
		return lipgloss.Place(width, d.bodyHeight(), lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center,
				emptyTitleStyle.Render("No Chat History Found"),
				emptyTextStyle.Render("Your chat conversations will appear here."),
			))
	}

	lines := d.lines()
	end := min(d.offset+d.bodyHeight(), len(lines))
	out := make([]string, 0, end-d.offset)
	for _, l := range lines[d.offset:end] {
		if l.index < 0 {
			out = append(out, groupHeadingStyle.Render(truncate.StringWithTail(l.heading, uint(width), "…")))
			continue
		}
		out = append(out, d.renderRow(d.visible[l.index], l.index == d.cursor, width-1))
	}
	return strings.Join(out, "\n")
}

func (d *Dialog) renderRow(chat models.Chat, isCursor bool, width int) string {
	cursor, pin := " ", " "
	if isCursor {
		cursor = ">"
	}
	if d.selection.SelectedID() == chat.ID {
		pin = "●"
	}
	prefix := cursor + pin + " "

	switch {
	case d.rows.Editing(chat.ID):
		return prefix + d.edit.View()
	case d.rows.Deleting(chat.ID):
		prompt := fmt.Sprintf("Delete %q? enter/y: delete  esc/n: keep", chat.DisplayTitle())
		return prefix + deletePromptStyle.Render(truncate.StringWithTail(prompt, uint(max(width-2, 1)), "…"))
	}

	right := dateStyle.Render(FormatDate(chat.CreatedAt, d.now()))
	if isCursor && !d.rows.Busy() {
		right = actionHintStyle.Render("^r rename ^d delete")
	}
	titleWidth := max(width-lipgloss.Width(prefix)-lipgloss.Width(right)-1, 1)
	title := truncate.StringWithTail(chat.DisplayTitle(), uint(titleWidth), "…")

	style := rowStyle
	if isCursor {
		style = cursorRowStyle
	}
	gap := max(width-lipgloss.Width(prefix)-lipgloss.Width(title)-lipgloss.Width(right), 1)
	return style.Render(prefix+title) + strings.Repeat(" ", gap) + right
}

func (d *Dialog) renderPreview(width int) string {
	h := d.bodyHeight()
	center := func(title, text string) string {
		return lipgloss.Place(width, h, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center,
				emptyTitleStyle.Render(title),
				emptyTextStyle.Render(wordwrap.String(text, max(width-4, 10))),
			))
	}

	switch {
	case d.preview.Loading():
		return center(d.spinner.View()+" Loading Preview...", "Fetching conversation messages.")
	case d.preview.ChatID() == "":
		if d.search.Value() != "" {
			return center("No Matching Chats",
				"Clear or change your search to see other chats, or select one if available.")
		}
		return center("No Chat Selected", "Move the cursor over a chat in the list to preview it here.")
	case len(d.preview.Messages()) == 0:
		return center("Chat is Empty", "This conversation has no messages to display.")
	}
	return d.viewport.View()
}

func (d *Dialog) renderFooter() string {
	if d.status != "" {
		return footerStyle.Render(d.status)
	}
	var help string
	switch d.rows.Mode {
	case RowEditing:
		help = "enter: save  esc: cancel"
	case RowDeleting:
		help = "enter/y: delete  esc/n: keep"
	default:
		toggle := "hide preview"
		if !d.showPreview {
			toggle = "show preview"
		}
		help = "↑/↓: navigate  enter: open  tab: pin  ^r: rename  ^d: delete  ^p: " + toggle + "  esc: close"
	}
	return footerStyle.Render(truncate.StringWithTail(help, uint(max(d.width, 1)), "…"))
}
