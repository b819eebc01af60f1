package history

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"recall/internal/models"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultMinDisplay keeps the loading state visible long enough to avoid flicker
const DefaultMinDisplay = 50 * time.Millisecond

// MessageFetcher loads the stored messages of a chat
type MessageFetcher interface {
	CachedMessages(ctx context.Context, chatID string) ([]models.Message, error)
}

// PreviewLoadedMsg carries the result of one preview load
type PreviewLoadedMsg struct {
	Gen      uint64
	ChatID   string
	Messages []models.Message
	Err      error
}

// Preview loads the messages shown in the preview pane. Every load gets a
// new generation; only a result carrying the current generation is applied.
type Preview struct {
	fetcher    MessageFetcher
	minDisplay time.Duration
	log        *slog.Logger

	gen      uint64
	cancel   context.CancelFunc
	chatID   string
	loading  bool
	messages []models.Message
}

// NewPreview creates a preview loader
func NewPreview(fetcher MessageFetcher, minDisplay time.Duration, log *slog.Logger) *Preview {
	if log == nil {
		log = slog.Default()
	}
	return &Preview{fetcher: fetcher, minDisplay: minDisplay, log: log}
}

// Loading reports whether a load is in flight
func (p *Preview) Loading() bool { return p.loading }

// Messages returns the messages of the last applied load
func (p *Preview) Messages() []models.Message { return p.messages }

// ChatID returns the chat the preview is for, or ""
func (p *Preview) ChatID() string { return p.chatID }

// Load starts loading target's messages and supersedes any earlier load.
// When isActive is set the messages already in memory are used instead of
// the fetcher. A nil target clears the preview and returns no command.
func (p *Preview) Load(target *models.Chat, isActive bool, active []models.Message) tea.Cmd {
	p.stop()
	p.gen++
	p.messages = nil

	if target == nil {
		p.chatID = ""
		p.loading = false
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.chatID = target.ID
	p.loading = true

	var snapshot []models.Message
	if isActive {
		snapshot = append([]models.Message(nil), active...)
	}
	gen, chatID := p.gen, target.ID
	fetcher, minDisplay, log := p.fetcher, p.minDisplay, p.log

	return func() tea.Msg {
		timer := time.NewTimer(minDisplay)
		defer timer.Stop()

		result := PreviewLoadedMsg{Gen: gen, ChatID: chatID}
		if isActive {
			result.Messages = snapshot
		} else {
			msgs, err := fetcher.CachedMessages(ctx, chatID)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error("Error fetching cached messages for preview", "chatID", chatID, "error", err)
				}
				result.Err = err
			} else {
				result.Messages = msgs
			}
		}

		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return result
	}
}

// Apply stores msg if it belongs to the current load and reports whether it did
func (p *Preview) Apply(msg PreviewLoadedMsg) bool {
	if msg.Gen != p.gen || !p.loading {
		return false
	}
	p.stop()
	p.loading = false
	p.messages = msg.Messages
	return true
}

// Teardown invalidates any in-flight load and clears the preview
func (p *Preview) Teardown() {
	p.stop()
	p.gen++
	p.chatID = ""
	p.loading = false
	p.messages = nil
}

func (p *Preview) stop() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
