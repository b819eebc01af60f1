package history

import (
	"log/slog"
	"strings"
	"time"

	"recall/internal/models"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// OpenChatMsg asks the parent to navigate to a chat
type OpenChatMsg struct{ ID string }

// RenameChatMsg asks the parent to rename a chat
type RenameChatMsg struct {
	ID    string
	Title string
}

// DeleteChatMsg asks the parent to delete a chat
type DeleteChatMsg struct{ ID string }

// ClosedMsg reports that the dialog was dismissed
type ClosedMsg struct{}

// Option configures a Dialog
type Option func(*Dialog)

// WithNow replaces the clock used for date grouping
func WithNow(fn func() time.Time) Option {
	return func(d *Dialog) { d.now = fn }
}

// WithMinDisplay sets how long the preview loading state is shown at least
func WithMinDisplay(min time.Duration) Option {
	return func(d *Dialog) { d.minDisplay = min }
}

// WithLogger sets the logger used for preview failures
func WithLogger(log *slog.Logger) Option {
	return func(d *Dialog) { d.log = log }
}

type previewKey struct {
	chatID string
	active bool
	rev    int
}

// Dialog is the two-pane chat history browser: a searchable list on the left
// and a preview of the chat under the cursor, or the pinned chat, on the right.
type Dialog struct {
	open          bool
	width, height int
	now           func() time.Time
	minDisplay    time.Duration
	log           *slog.Logger
	keys          keyMap

	chats          []models.Chat
	activeID       string
	activeMessages []models.Message
	activeRev      int

	search   textinput.Model
	edit     textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	groups  []Group
	visible []models.Chat
	cursor  int
	offset  int

	selection   Selection
	rows        RowState
	preview     *Preview
	lastPreview previewKey
	showPreview bool
	status      string
}

// NewDialog creates a closed history dialog that fetches previews from fetcher
func NewDialog(fetcher MessageFetcher, opts ...Option) *Dialog {
	search := textinput.New()
	search.Placeholder = "Search history..."
	search.Prompt = "⌕ "
	search.CharLimit = 200

	edit := textinput.New()
	edit.Prompt = ""
	edit.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = actionHintStyle

	d := &Dialog{
		now:         time.Now,
		minDisplay:  DefaultMinDisplay,
		log:         slog.Default(),
		keys:        defaultKeyMap(),
		search:      search,
		edit:        edit,
		spinner:     sp,
		viewport:    viewport.New(40, 10),
		showPreview: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.preview = NewPreview(fetcher, d.minDisplay, d.log)
	return d
}

// IsOpen reports whether the dialog is showing
func (d *Dialog) IsOpen() bool { return d.open }

// Open shows the dialog with an empty search and the first row under the cursor
func (d *Dialog) Open() tea.Cmd {
	d.open = true
	d.status = ""
	d.search.Reset()
	focusCmd := d.search.Focus()
	d.cursor, d.offset = 0, 0
	d.recompute()
	return tea.Batch(focusCmd, d.spinner.Tick, d.syncPreview())
}

// Close hides the dialog and resets search, selection and row actions.
// Any preview still loading is discarded.
func (d *Dialog) Close() {
	d.open = false
	d.search.Reset()
	d.search.Blur()
	d.edit.Blur()
	d.rows.Cancel()
	d.selection.Reset()
	d.preview.Teardown()
	d.lastPreview = previewKey{}
	d.cursor, d.offset = 0, 0
	d.status = ""
}

// SetChats replaces the chat list. The parent owns the list; the dialog
// only reads it.
func (d *Dialog) SetChats(chats []models.Chat) tea.Cmd {
	d.chats = chats
	if !d.open {
		return nil
	}
	d.recompute()
	return d.syncPreview()
}

// SetActive records the chat open in the main view and its in-memory
// messages. Previews of that chat use them instead of the store.
func (d *Dialog) SetActive(chatID string, messages []models.Message) tea.Cmd {
	d.activeID = chatID
	d.activeMessages = messages
	d.activeRev++
	if !d.open {
		return nil
	}
	return d.syncPreview()
}

// SetSize sets the area the dialog renders into
func (d *Dialog) SetSize(width, height int) {
	d.width, d.height = width, height
	d.search.Width = max(width-4, 10)
	d.resizePreview()
	d.ensureCursorVisible()
}

// Update handles messages while the dialog is open
func (d *Dialog) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PreviewLoadedMsg:
		if d.preview.Apply(msg) {
			d.refreshPreview()
		}
		return nil
	case spinner.TickMsg:
		if !d.open {
			return nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return cmd
	}

	if !d.open {
		return nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return d.handleKey(msg)
	case tea.MouseMsg:
		return d.handleMouse(msg)
	}
	return nil
}

func (d *Dialog) handleKey(msg tea.KeyMsg) tea.Cmd {
	d.status = ""
	switch d.rows.Mode {
	case RowEditing:
		return d.handleEditKey(msg)
	case RowDeleting:
		if cmd, handled := d.handleDeleteKey(msg); handled {
			return cmd
		}
	}

	switch {
	case key.Matches(msg, d.keys.Cancel):
		d.Close()
		return emit(ClosedMsg{})

	case key.Matches(msg, d.keys.Up):
		d.moveCursor(-1)

	case key.Matches(msg, d.keys.Down):
		d.moveCursor(1)

	case key.Matches(msg, d.keys.Pin):
		if chat, ok := d.cursorChat(); ok {
			d.togglePin(chat.ID)
		}

	case key.Matches(msg, d.keys.Open):
		if chat, ok := d.cursorChat(); ok {
			return d.openChat(chat.ID)
		}
		return nil

	case key.Matches(msg, d.keys.Rename):
		if chat, ok := d.cursorChat(); ok {
			return d.startEdit(chat)
		}
		return nil

	case key.Matches(msg, d.keys.Delete):
		if chat, ok := d.cursorChat(); ok {
			d.rows.StartDelete(chat.ID)
			d.edit.Blur()
		}
		return nil

	case key.Matches(msg, d.keys.TogglePreview):
		d.showPreview = !d.showPreview
		d.resizePreview()

	case key.Matches(msg, d.keys.Copy):
		d.copyPreview()

	case key.Matches(msg, d.keys.ScrollUp):
		d.viewport.HalfViewUp()

	case key.Matches(msg, d.keys.ScrollDown):
		d.viewport.HalfViewDown()

	default:
		if d.rows.Busy() {
			return nil
		}
		before := d.search.Value()
		var cmd tea.Cmd
		d.search, cmd = d.search.Update(msg)
		if d.search.Value() != before {
			d.cursor, d.offset = 0, 0
			d.recompute()
		}
		return tea.Batch(cmd, d.syncPreview())
	}

	return d.syncPreview()
}

func (d *Dialog) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Open):
		id, title, _ := d.rows.ConfirmEdit()
		d.endEdit()
		return emit(RenameChatMsg{ID: id, Title: strings.TrimSpace(title)})
	case key.Matches(msg, d.keys.Cancel):
		d.rows.Cancel()
		d.endEdit()
		return nil
	}

	var cmd tea.Cmd
	d.edit, cmd = d.edit.Update(msg)
	d.rows.Draft = d.edit.Value()
	return cmd
}

// handleDeleteKey handles the confirmation keys. Other keys fall through so
// the cursor can move and another row can be put into edit or delete mode.
func (d *Dialog) handleDeleteKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, d.keys.Confirm):
		id, _ := d.rows.ConfirmDelete()
		return emit(DeleteChatMsg{ID: id}), true
	case key.Matches(msg, d.keys.Decline):
		d.rows.Cancel()
		return nil, true
	case key.Matches(msg, d.keys.Up, d.keys.Down, d.keys.Rename, d.keys.Delete):
		return nil, false
	}
	return nil, true
}

func (d *Dialog) handleMouse(msg tea.MouseMsg) tea.Cmd {
	idx, ok := d.rowAt(msg.X, msg.Y)

	switch msg.Type {
	case tea.MouseWheelUp:
		d.moveCursor(-1)
	case tea.MouseWheelDown:
		d.moveCursor(1)
	case tea.MouseMotion:
		if !ok {
			return nil
		}
		if !d.rows.Busy() {
			d.cursor = idx
		}
		d.selection.Hover(d.visible[idx].ID, d.rows.Busy())
	case tea.MouseLeft:
		if !ok || d.rows.Busy() {
			return nil
		}
		return d.openChat(d.visible[idx].ID)
	case tea.MouseRight:
		if !ok {
			return nil
		}
		d.togglePin(d.visible[idx].ID)
	default:
		return nil
	}

	return d.syncPreview()
}

func (d *Dialog) openChat(id string) tea.Cmd {
	if d.rows.Busy() {
		return nil
	}
	d.Close()
	return emit(OpenChatMsg{ID: id})
}

func (d *Dialog) startEdit(chat models.Chat) tea.Cmd {
	d.rows.StartEdit(chat)
	d.edit.SetValue(chat.Title)
	d.edit.CursorEnd()
	d.search.Blur()
	return d.edit.Focus()
}

func (d *Dialog) endEdit() {
	d.edit.Blur()
	d.edit.Reset()
	d.search.Focus()
}

func (d *Dialog) togglePin(id string) {
	if d.selection.SelectedID() == id {
		d.selection.Unselect()
		return
	}
	d.selection.Select(id)
}

func (d *Dialog) moveCursor(delta int) {
	if len(d.visible) == 0 {
		return
	}
	d.cursor = clamp(d.cursor+delta, 0, len(d.visible)-1)
	d.ensureCursorVisible()
	d.selection.Hover(d.visible[d.cursor].ID, d.rows.Busy())
}

func (d *Dialog) cursorChat() (models.Chat, bool) {
	if d.cursor < 0 || d.cursor >= len(d.visible) {
		return models.Chat{}, false
	}
	return d.visible[d.cursor], true
}

// recompute rebuilds the visible list and reconciles everything that refers
// to it. It runs after every change to the chats or the search term.
func (d *Dialog) recompute() {
	term := d.search.Value()
	d.groups = GroupChats(d.chats, term, d.now())
	if term != "" {
		d.visible = Filter(d.chats, term)
	} else {
		d.visible = Flatten(d.groups)
	}

	d.selection.Reconcile(d.visible)
	if d.rows.Busy() && !containsChat(d.visible, d.rows.ID) {
		if d.rows.Mode == RowEditing {
			d.endEdit()
		}
		d.rows.Cancel()
	}

	if hovered := d.selection.HoveredID(); hovered != "" {
		for i, c := range d.visible {
			if c.ID == hovered {
				d.cursor = i
				break
			}
		}
	}
	if len(d.visible) == 0 {
		d.cursor = 0
	} else {
		d.cursor = clamp(d.cursor, 0, len(d.visible)-1)
		d.selection.Hover(d.visible[d.cursor].ID, d.rows.Busy())
	}
	d.ensureCursorVisible()
}

// syncPreview starts a preview load when the effective target, its active
// state or the active chat's messages changed since the last load.
func (d *Dialog) syncPreview() tea.Cmd {
	target, ok := findChat(d.visible, d.selection.Target())

	var next previewKey
	if ok {
		next = previewKey{chatID: target.ID, active: target.ID == d.activeID}
		if next.active {
			next.rev = d.activeRev
		}
	}
	if next == d.lastPreview {
		return nil
	}
	d.lastPreview = next
	d.viewport.SetContent("")

	if !ok {
		return d.preview.Load(nil, false, nil)
	}
	return d.preview.Load(&target, next.active, d.activeMessages)
}

func (d *Dialog) copyPreview() {
	msgs := d.preview.Messages()
	if d.preview.Loading() || len(msgs) == 0 {
		d.status = "Nothing to copy"
		return
	}
	if err := clipboard.WriteAll(transcript(msgs)); err != nil {
		d.log.Warn("Failed to copy preview", "error", err)
		d.status = "Copy failed"
		return
	}
	d.status = "Copied preview to clipboard"
}

func transcript(msgs []models.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(roleLabel(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
