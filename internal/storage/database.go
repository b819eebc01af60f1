package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"recall/internal/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrChatNotFound is returned when an operation targets an unknown chat id
var ErrChatNotFound = errors.New("chat not found")

// Database handles SQLite operations for chats and messages
type Database struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// NewDatabase opens the database at dbPath and initializes tables
func NewDatabase(dbPath string, log *slog.Logger) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if log == nil {
		log = slog.Default()
	}
	database := &Database{db: db, log: log, now: time.Now}
	if err := database.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return database, nil
}

func (d *Database) createTables() error {
	chatsTable := `
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		title TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	messagesTable := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (chat_id) REFERENCES chats (id) ON DELETE CASCADE
	);`

	indexTable := `
	CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id);
	CREATE INDEX IF NOT EXISTS idx_chats_created_at ON chats(created_at DESC);`

	for _, query := range []string{chatsTable, messagesTable, indexTable} {
		if _, err := d.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// CreateChat inserts a new chat and returns it
func (d *Database) CreateChat(ctx context.Context, title string) (models.Chat, error) {
	now := d.now().UTC()
	chat := models.Chat{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO chats (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		chat.ID, nullString(title), now, now)
	if err != nil {
		return models.Chat{}, fmt.Errorf("failed to create chat: %w", err)
	}

	d.log.Debug("Chat created", "chatID", chat.ID)
	return chat, nil
}

// ListChats returns all chat summaries, newest first
func (d *Database) ListChats(ctx context.Context) ([]models.Chat, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, created_at
		FROM chats
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		var title sql.NullString
		if err := rows.Scan(&chat.ID, &title, &chat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chat.Title = title.String
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}

// CachedMessages returns the stored messages of a chat in order
func (d *Database) CachedMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, id ASC`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages for %s: %w", chatID, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// AppendMessage stores msg and returns it with its id and timestamp filled in
func (d *Database) AppendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = d.now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE chats SET updated_at = ? WHERE id = ?", msg.CreatedAt, msg.ChatID)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to touch chat %s: %w", msg.ChatID, err)
	}
	if err := expectOneRow(res, msg.ChatID); err != nil {
		return models.Message{}, err
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO messages (chat_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		msg.ChatID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	if msg.ID, err = res.LastInsertId(); err != nil {
		return models.Message{}, err
	}

	return msg, tx.Commit()
}

// RenameChat sets the title of a chat. An empty title clears it.
func (d *Database) RenameChat(ctx context.Context, chatID, title string) error {
	res, err := d.db.ExecContext(ctx,
		"UPDATE chats SET title = ?, updated_at = ? WHERE id = ?",
		nullString(title), d.now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("failed to rename chat %s: %w", chatID, err)
	}
	if err := expectOneRow(res, chatID); err != nil {
		return err
	}

	d.log.Debug("Chat renamed", "chatID", chatID)
	return nil
}

// DeleteChat removes a chat and all its messages
func (d *Database) DeleteChat(ctx context.Context, chatID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("failed to delete messages of %s: %w", chatID, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat %s: %w", chatID, err)
	}
	if err := expectOneRow(res, chatID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	d.log.Debug("Chat deleted", "chatID", chatID)
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func expectOneRow(res sql.Result, chatID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
