package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"recall/internal/assistant"
	"recall/internal/history"
	"recall/internal/logger"
	"recall/internal/models"
	"recall/internal/storage"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type FocusState int

const (
	FocusSidebar FocusState = iota
	FocusChat
)

const (
	headerHeight = 1
	statusHeight = 1
	inputHeight  = 3
)

// Store is the chat persistence the UI needs
type Store interface {
	history.MessageFetcher
	CreateChat(ctx context.Context, title string) (models.Chat, error)
	ListChats(ctx context.Context) ([]models.Chat, error)
	AppendMessage(ctx context.Context, msg models.Message) (models.Message, error)
	RenameChat(ctx context.Context, chatID, title string) error
	DeleteChat(ctx context.Context, chatID string) error
}

// Assistant answers messages and names chats
type Assistant interface {
	Reply(ctx context.Context, history []models.Message) (string, error)
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}

// Options configures the main model
type Options struct {
	ShowSidebar       bool
	PreviewMinDisplay time.Duration
	Logger            *slog.Logger
	Now               func() time.Time
}

// Model represents the main application state
type Model struct {
	store Store
	ai    Assistant
	log   *slog.Logger
	now   func() time.Time

	viewport viewport.Model
	textarea textarea.Model
	chatList list.Model
	history  *history.Dialog

	chats       []models.Chat
	currentID   string
	messages    []models.Message
	loadingChat bool
	creating    bool

	loading   bool
	pendingID string
	status    string

	ready        bool
	focus        FocusState
	sidebarOpen  bool
	width        int
	height       int
	sidebarWidth int
}

// ResponseMsg represents the assistant's reply to a sent message
type ResponseMsg struct {
	ChatID  string
	Message models.Message
	Err     error
}

type chatsLoadedMsg struct {
	chats []models.Chat
	err   error
}

type chatCreatedMsg struct {
	chat models.Chat
	err  error
}

type messagesLoadedMsg struct {
	chatID   string
	messages []models.Message
	err      error
}

// chatUpdatedMsg reports the outcome of a store write. op names the action
// for the status line.
type chatUpdatedMsg struct {
	op     string
	chatID string
	err    error
}

// NewModel creates a new UI model
func NewModel(store Store, ai Assistant, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("ui")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Prompt = "┃ "
	ta.CharLimit = 2000
	ta.SetWidth(50)
	ta.SetHeight(inputHeight)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.Focus()

	chatList := list.New(nil, list.NewDefaultDelegate(), 30, 20)
	chatList.Title = "Chats"
	chatList.SetShowStatusBar(false)
	chatList.SetFilteringEnabled(false)
	chatList.SetShowHelp(false)

	dialog := history.NewDialog(store,
		history.WithMinDisplay(opts.PreviewMinDisplay),
		history.WithNow(now),
		history.WithLogger(log.With(slog.String("view", "history"))),
	)

	m := &Model{
		store:        store,
		ai:           ai,
		log:          log,
		now:          now,
		textarea:     ta,
		viewport:     viewport.New(50, 20),
		chatList:     chatList,
		history:      dialog,
		focus:        FocusChat,
		sidebarOpen:  opts.ShowSidebar,
		sidebarWidth: 30,
	}
	m.updateViewport()
	return m
}

// Init loads the chat list
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadChats())
}

// Update handles UI events and state changes
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.updateViewport()
		return m, nil

	case history.PreviewLoadedMsg, spinner.TickMsg:
		return m, m.history.Update(msg)

	case history.OpenChatMsg:
		focusCmd := m.focusChat()
		loadCmd := m.navigateToChat(msg.ID)
		return m, tea.Batch(focusCmd, loadCmd)

	case history.RenameChatMsg:
		cmd := m.renameChat(msg.ID, msg.Title)
		return m, cmd

	case history.DeleteChatMsg:
		cmd := m.deleteChat(msg.ID)
		return m, cmd

	case history.ClosedMsg:
		cmd := m.focusChat()
		return m, cmd

	case chatsLoadedMsg:
		cmd := m.applyChats(msg)
		return m, cmd

	case chatCreatedMsg:
		m.creating = false
		if msg.err != nil {
			m.fail("create", "", msg.err)
			return m, nil
		}
		loadCmd := m.navigateToChat(msg.chat.ID)
		return m, tea.Batch(loadCmd, m.loadChats())

	case messagesLoadedMsg:
		if msg.chatID != m.currentID {
			return m, nil
		}
		m.loadingChat = false
		if msg.err != nil {
			m.fail("load", msg.chatID, msg.err)
		}
		m.messages = msg.messages
		m.updateViewport()
		cmd := m.history.SetActive(m.currentID, slices.Clone(m.messages))
		return m, cmd

	case ResponseMsg:
		m.loading = false
		m.pendingID = ""
		if m.deletedMeanwhile(msg.ChatID, msg.Err) {
			m.log.Debug("Reply dropped for deleted chat", "chatID", msg.ChatID)
		} else if msg.Err != nil {
			m.log.Error("Failed to get reply", "chatID", msg.ChatID, "error", msg.Err)
			m.status = "Error: " + msg.Err.Error()
		} else if msg.ChatID == m.currentID {
			m.messages = append(m.messages, msg.Message)
		}
		m.updateViewport()
		cmd := m.history.SetActive(m.currentID, slices.Clone(m.messages))
		return m, cmd

	case chatUpdatedMsg:
		if m.deletedMeanwhile(msg.chatID, msg.err) {
			m.log.Debug("Update dropped for deleted chat", "op", msg.op, "chatID", msg.chatID)
		} else if msg.err != nil {
			m.fail(msg.op, msg.chatID, msg.err)
		}
		return m, m.loadChats()

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.history.IsOpen() {
			return m, m.history.Update(msg)
		}
		cmd := m.handleKey(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.history.IsOpen() {
			msg.Y -= headerHeight
			return m, m.history.Update(msg)
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.status = ""

	switch {
	case key.Matches(msg, keys.History):
		return m.openHistory()
	case key.Matches(msg, keys.Sidebar):
		return m.toggleSidebar()
	case key.Matches(msg, keys.NewChat):
		return m.newChat()
	case key.Matches(msg, keys.Focus):
		if !m.sidebarOpen {
			return nil
		}
		if m.focus == FocusSidebar {
			return m.focusChat()
		}
		m.focus = FocusSidebar
		m.textarea.Blur()
		return nil
	case key.Matches(msg, keys.Back):
		if m.focus == FocusSidebar {
			return m.focusChat()
		}
		return nil
	case key.Matches(msg, keys.Send):
		if m.focus == FocusSidebar {
			chat, ok := models.ChatFromItem(m.chatList.SelectedItem())
			if !ok {
				return nil
			}
			focusCmd := m.focusChat()
			return tea.Batch(focusCmd, m.navigateToChat(chat.ID))
		}
		return m.send()
	case key.Matches(msg, keys.Scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	if m.focus == FocusSidebar {
		m.chatList, cmd = m.chatList.Update(msg)
	} else {
		m.textarea, cmd = m.textarea.Update(msg)
	}
	return cmd
}

func (m *Model) openHistory() tea.Cmd {
	m.textarea.Blur()
	m.history.SetSize(m.width, m.dialogHeight())
	return m.history.Open()
}

func (m *Model) toggleSidebar() tea.Cmd {
	m.sidebarOpen = !m.sidebarOpen
	var cmd tea.Cmd
	if !m.sidebarOpen && m.focus == FocusSidebar {
		cmd = m.focusChat()
	}
	m.resize()
	m.updateViewport()
	return cmd
}

func (m *Model) focusChat() tea.Cmd {
	m.focus = FocusChat
	return m.textarea.Focus()
}

// newChat starts a fresh chat unless the current one is still empty
func (m *Model) newChat() tea.Cmd {
	if m.creating {
		return nil
	}
	if m.currentID != "" && !m.loadingChat && len(m.messages) == 0 {
		return m.focusChat()
	}
	focusCmd := m.focusChat()
	return tea.Batch(focusCmd, m.createChat())
}

func (m *Model) createChat() tea.Cmd {
	m.creating = true
	store := m.store
	return func() tea.Msg {
		chat, err := store.CreateChat(context.Background(), "")
		return chatCreatedMsg{chat: chat, err: err}
	}
}

func (m Model) loadChats() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		chats, err := store.ListChats(context.Background())
		return chatsLoadedMsg{chats: chats, err: err}
	}
}

func (m *Model) applyChats(msg chatsLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.fail("load", "", msg.err)
		return nil
	}

	cmds := m.setChats(msg.chats)
	if m.currentID == "" && !m.creating {
		if len(m.chats) > 0 {
			cmds = append(cmds, m.navigateToChat(m.chats[0].ID))
		} else {
			cmds = append(cmds, m.createChat())
		}
	}
	return tea.Batch(cmds...)
}

// setChats replaces the chat list in the sidebar and the history dialog
func (m *Model) setChats(chats []models.Chat) []tea.Cmd {
	m.chats = chats
	listCmd := m.chatList.SetItems(models.Items(chats))
	m.selectInSidebar()
	return []tea.Cmd{listCmd, m.history.SetChats(chats)}
}

func (m *Model) selectInSidebar() {
	for i, chat := range m.chats {
		if chat.ID == m.currentID {
			m.chatList.Select(i)
			return
		}
	}
}

// navigateToChat makes id the current chat and loads its stored messages
func (m *Model) navigateToChat(id string) tea.Cmd {
	m.currentID = id
	m.messages = nil
	m.loadingChat = true
	m.selectInSidebar()
	m.updateViewport()

	store := m.store
	return func() tea.Msg {
		msgs, err := store.CachedMessages(context.Background(), id)
		return messagesLoadedMsg{chatID: id, messages: msgs, err: err}
	}
}

// renameChat applies the new title locally, then persists it
func (m *Model) renameChat(id, title string) tea.Cmd {
	chats := slices.Clone(m.chats)
	for i := range chats {
		if chats[i].ID == id {
			chats[i].Title = title
		}
	}
	cmds := m.setChats(chats)

	store := m.store
	cmds = append(cmds, func() tea.Msg {
		err := store.RenameChat(context.Background(), id, title)
		return chatUpdatedMsg{op: "rename", chatID: id, err: err}
	})
	return tea.Batch(cmds...)
}

// deleteChat drops the chat locally, then from the store. Deleting the
// current chat moves to the newest remaining one once the list reloads.
func (m *Model) deleteChat(id string) tea.Cmd {
	chats := slices.DeleteFunc(slices.Clone(m.chats), func(c models.Chat) bool {
		return c.ID == id
	})
	if id == m.currentID {
		m.currentID = ""
		m.messages = nil
		m.loadingChat = false
		m.updateViewport()
	}
	cmds := m.setChats(chats)

	store := m.store
	cmds = append(cmds, func() tea.Msg {
		err := store.DeleteChat(context.Background(), id)
		return chatUpdatedMsg{op: "delete", chatID: id, err: err}
	})
	return tea.Batch(cmds...)
}

func (m *Model) send() tea.Cmd {
	content := strings.TrimSpace(m.textarea.Value())
	if content == "" || m.loading || m.loadingChat || m.currentID == "" {
		return nil
	}

	userMsg := models.Message{
		ChatID:    m.currentID,
		Role:      models.RoleUser,
		Content:   content,
		CreatedAt: m.now(),
	}
	m.messages = append(m.messages, userMsg)
	m.loading = true
	m.pendingID = m.currentID
	m.textarea.Reset()
	m.updateViewport()

	conversation := slices.Clone(m.messages)
	cmds := []tea.Cmd{
		m.history.SetActive(m.currentID, conversation),
		m.reply(userMsg, conversation),
	}
	if len(m.messages) == 1 {
		cmds = append(cmds, m.nameChat(m.currentID, content))
	}
	return tea.Batch(cmds...)
}

// reply stores the user's message, asks the assistant and stores the answer
func (m *Model) reply(userMsg models.Message, conversation []models.Message) tea.Cmd {
	store, ai, now := m.store, m.ai, m.now
	return func() tea.Msg {
		ctx := context.Background()
		chatID := userMsg.ChatID

		if _, err := store.AppendMessage(ctx, userMsg); err != nil {
			return ResponseMsg{ChatID: chatID, Err: err}
		}

		content, err := ai.Reply(ctx, conversation)
		if err != nil {
			return ResponseMsg{ChatID: chatID, Err: err}
		}

		saved, err := store.AppendMessage(ctx, models.Message{
			ChatID:    chatID,
			Role:      models.RoleAssistant,
			Content:   content,
			CreatedAt: now(),
		})
		if err != nil {
			return ResponseMsg{ChatID: chatID, Err: err}
		}
		return ResponseMsg{ChatID: chatID, Message: saved}
	}
}

// nameChat titles a chat after its first message
func (m *Model) nameChat(chatID, firstMessage string) tea.Cmd {
	store, ai, log := m.store, m.ai, m.log
	return func() tea.Msg {
		ctx := context.Background()
		title, err := ai.GenerateTitle(ctx, firstMessage)
		if err != nil || title == "" {
			log.Debug("Falling back to message title", "chatID", chatID, "error", err)
			title = assistant.FallbackTitle(firstMessage)
		}
		err = store.RenameChat(ctx, chatID, title)
		return chatUpdatedMsg{op: "name", chatID: chatID, err: err}
	}
}

// deletedMeanwhile reports whether err comes from writing to a chat that
// was deleted while the write was in flight
func (m *Model) deletedMeanwhile(chatID string, err error) bool {
	if !errors.Is(err, storage.ErrChatNotFound) {
		return false
	}
	return !slices.ContainsFunc(m.chats, func(c models.Chat) bool { return c.ID == chatID })
}

func (m *Model) fail(op, chatID string, err error) {
	m.log.Error("Chat operation failed", "op", op, "chatID", chatID, "error", err)
	m.status = fmt.Sprintf("Failed to %s chat: %v", op, err)
}

func (m *Model) resize() {
	bodyHeight := max(m.height-headerHeight-statusHeight, 1)
	chatWidth := m.chatWidth()

	m.viewport.Width = chatWidth
	m.viewport.Height = max(bodyHeight-inputHeight-1, 1)
	m.textarea.SetWidth(max(chatWidth-2, 10))
	m.chatList.SetSize(m.sidebarWidth-2, bodyHeight)
	m.history.SetSize(m.width, m.dialogHeight())
	m.ready = true
}

func (m Model) chatWidth() int {
	if m.sidebarOpen {
		return max(m.width-m.sidebarWidth-2, 10)
	}
	return max(m.width-2, 10)
}

func (m Model) dialogHeight() int {
	return max(m.height-headerHeight-statusHeight, 1)
}

func (m *Model) updateViewport() {
	var content strings.Builder

	if len(m.messages) == 0 && !m.loadingChat {
		content.WriteString("Start typing to begin a conversation.\n\n")
		content.WriteString(HelpStyle.Render("Controls:") + "\n")
		for _, line := range []string{
			"Enter - Send message",
			"Ctrl+N - New chat",
			"Ctrl+O - Chat history",
			"Ctrl+B - Toggle sidebar",
			"Tab - Switch between sidebar and chat",
			"Ctrl+C - Quit",
		} {
			content.WriteString(HelpStyle.Render("• "+line) + "\n")
		}
	}

	width := max(m.viewport.Width-4, 10)
	for _, msg := range m.messages {
		label := AssistantStyle.Render("Assistant")
		if msg.Role == models.RoleUser {
			label = UserStyle.Render("You")
		}
		content.WriteString(MessageStyle.Render(
			label + " " + TimeStyle.Render("["+msg.CreatedAt.Format("15:04:05")+"]") + "\n" +
				wordwrap.String(msg.Content, width),
		))
		content.WriteString("\n")
	}

	if m.loading && m.pendingID == m.currentID {
		content.WriteString(MessageStyle.Render(LoadingStyle.Render("Assistant is typing...")) + "\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := Header{Width: m.width, SidebarOpen: m.sidebarOpen}.View()

	var body string
	if m.history.IsOpen() {
		body = m.history.View()
	} else {
		body = m.chatView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.statusLine())
}

func (m Model) chatView() string {
	chat := ChatStyle.Width(m.chatWidth()).Render(
		m.viewport.View() + "\n" + m.textarea.View(),
	)
	if !m.sidebarOpen {
		return chat
	}

	style := SidebarStyle
	if m.focus == FocusSidebar {
		style = SidebarFocusedStyle
	}
	sidebar := style.Width(m.sidebarWidth).Height(m.dialogHeight()).Render(m.chatList.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chat)
}

func (m Model) statusLine() string {
	if m.status != "" {
		return ErrorStyle.Render(m.status)
	}
	return HelpStyle.Render(strings.Join([]string{
		hint(keys.History), hint(keys.Sidebar), hint(keys.Focus), hint(keys.Quit),
	}, " • "))
}
