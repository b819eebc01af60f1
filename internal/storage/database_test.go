package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"recall/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "chats.db"), nil)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndListChats(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	db.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := db.CreateChat(ctx, "First")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	second, err := db.CreateChat(ctx, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("chat ids should be unique")
	}

	chats, err := db.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats() error = %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("ListChats() = %d chats, want 2", len(chats))
	}
	if chats[0].ID != second.ID {
		t.Errorf("chats[0] = %s, want newest chat %s", chats[0].ID, second.ID)
	}
	if chats[0].Title != "" {
		t.Errorf("untitled chat Title = %q, want empty", chats[0].Title)
	}
	if chats[1].Title != "First" {
		t.Errorf("chats[1].Title = %q, want First", chats[1].Title)
	}
	if !chats[1].CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", chats[1].CreatedAt, first.CreatedAt)
	}
}

func TestAppendAndCachedMessages(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	chat, err := db.CreateChat(ctx, "Chat")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"hello", "hi there", "bye"} {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msg, err := db.AppendMessage(ctx, models.Message{
			ChatID:    chat.ID,
			Role:      role,
			Content:   content,
			CreatedAt: start.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
		if msg.ID == 0 {
			t.Error("AppendMessage() should assign an id")
		}
	}

	msgs, err := db.CachedMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("CachedMessages() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("CachedMessages() = %d messages, want 3", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[2].Content != "bye" {
		t.Errorf("messages out of order: %q ... %q", msgs[0].Content, msgs[2].Content)
	}
	if msgs[1].Role != models.RoleAssistant {
		t.Errorf("msgs[1].Role = %q, want assistant", msgs[1].Role)
	}

	empty, err := db.CachedMessages(ctx, "missing")
	if err != nil {
		t.Fatalf("CachedMessages(missing) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("CachedMessages(missing) = %d messages, want 0", len(empty))
	}
}

func TestRenameChat(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	chat, err := db.CreateChat(ctx, "Old")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if err := db.RenameChat(ctx, chat.ID, "New"); err != nil {
		t.Fatalf("RenameChat() error = %v", err)
	}

	chats, err := db.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats() error = %v", err)
	}
	if chats[0].Title != "New" {
		t.Errorf("Title = %q, want New", chats[0].Title)
	}

	if err := db.RenameChat(ctx, "missing", "x"); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("RenameChat(missing) error = %v, want ErrChatNotFound", err)
	}
}

func TestDeleteChatRemovesMessages(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	chat, err := db.CreateChat(ctx, "Doomed")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if _, err := db.AppendMessage(ctx, models.Message{ChatID: chat.ID, Role: models.RoleUser, Content: "x"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := db.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}

	chats, err := db.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats() error = %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("ListChats() = %d chats, want 0", len(chats))
	}
	msgs, err := db.CachedMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("CachedMessages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("CachedMessages() = %d, want 0 after delete", len(msgs))
	}

	if err := db.DeleteChat(ctx, chat.ID); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("second DeleteChat() error = %v, want ErrChatNotFound", err)
	}
}

func TestAppendMessageToDeletedChat(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	chat, err := db.CreateChat(ctx, "Short lived")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if err := db.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}

	_, err = db.AppendMessage(ctx, models.Message{ChatID: chat.ID, Role: models.RoleAssistant, Content: "late reply"})
	if !errors.Is(err, ErrChatNotFound) {
		t.Errorf("AppendMessage() error = %v, want ErrChatNotFound", err)
	}

	var orphans int
	if err := db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages WHERE chat_id = ?", chat.ID).Scan(&orphans); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d messages stored for a deleted chat, want 0", orphans)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	_, err := db.db.ExecContext(ctx, `
		INSERT INTO messages (chat_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		"no-such-chat", models.RoleUser, "x", time.Now().UTC())
	if err == nil {
		t.Error("insert with an unknown chat_id succeeded, want a foreign key error")
	}
}
