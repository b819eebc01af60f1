package models

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// UntitledChat is shown for chats that have no title yet
const UntitledChat = "Untitled Chat"

// Message represents a single chat message
type Message struct {
	ID        int64
	ChatID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Chat is the lightweight summary of a conversation, without its messages
type Chat struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// DisplayTitle returns the title, or UntitledChat when it is empty
func (c Chat) DisplayTitle() string {
	if c.Title == "" {
		return UntitledChat
	}
	return c.Title
}

// chatItem adapts Chat to list.DefaultItem for the sidebar
type chatItem struct {
	chat Chat
}

// FilterValue implements list.Item interface for the sidebar list
func (c chatItem) FilterValue() string { return c.chat.Title }

// Title implements list.DefaultItem interface for the sidebar list
func (c chatItem) Title() string { return c.chat.DisplayTitle() }

// Description implements list.DefaultItem interface for the sidebar list
func (c chatItem) Description() string {
	return c.chat.CreatedAt.Format("Jan 2, 15:04")
}

// Items converts chats into sidebar list items
func Items(chats []Chat) []list.Item {
	items := make([]list.Item, len(chats))
	for i, c := range chats {
		items[i] = chatItem{chat: c}
	}
	return items
}

// ChatFromItem returns the chat behind a sidebar list item
func ChatFromItem(item list.Item) (Chat, bool) {
	ci, ok := item.(chatItem)
	if !ok {
		return Chat{}, false
	}
	return ci.chat, true
}

var _ list.DefaultItem = chatItem{}
