package history

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"recall/internal/models"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeFetcher serves canned messages. A chat with a gate blocks until the
// gate is closed.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	msgs  map[string][]models.Message
	gates map[string]chan struct{}
	err   error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		msgs:  make(map[string][]models.Message),
		gates: make(map[string]chan struct{}),
	}
}

func (f *fakeFetcher) CachedMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, chatID)
	gate := f.gates[chatID]
	err := f.err
	msgs := f.msgs[chatID]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func messagesFor(chatID string, contents ...string) []models.Message {
	out := make([]models.Message, len(contents))
	for i, c := range contents {
		out[i] = models.Message{ID: int64(i + 1), ChatID: chatID, Role: models.RoleUser, Content: c}
	}
	return out
}

func loaded(t *testing.T, cmd tea.Cmd) PreviewLoadedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	raw := cmd()
	msg, ok := raw.(PreviewLoadedMsg)
	if !ok {
		t.Fatalf("command returned %T, want PreviewLoadedMsg", raw)
	}
	return msg
}

func TestPreviewNilTarget(t *testing.T) {
	p := NewPreview(newFakeFetcher(), 0, discardLogger())
	if cmd := p.Load(nil, false, nil); cmd != nil {
		t.Error("Load(nil) should not return a command")
	}
	if p.Loading() {
		t.Error("Loading() should be false for nil target")
	}
	if len(p.Messages()) != 0 {
		t.Errorf("Messages() = %d, want 0", len(p.Messages()))
	}
}

func TestPreviewFetchesCachedMessages(t *testing.T) {
	f := newFakeFetcher()
	f.msgs["a"] = messagesFor("a", "hello", "world")
	p := NewPreview(f, 0, discardLogger())

	cmd := p.Load(&models.Chat{ID: "a"}, false, nil)
	if !p.Loading() {
		t.Error("Loading() should be true while the fetch is pending")
	}
	if !p.Apply(loaded(t, cmd)) {
		t.Fatal("Apply() rejected the current load")
	}
	if p.Loading() {
		t.Error("Loading() should be false after Apply")
	}
	if got := len(p.Messages()); got != 2 {
		t.Errorf("Messages() = %d, want 2", got)
	}
}

func TestPreviewActiveChatSkipsFetch(t *testing.T) {
	f := newFakeFetcher()
	f.msgs["a"] = messagesFor("a", "stale copy")
	p := NewPreview(f, 0, discardLogger())

	active := messagesFor("a", "live 1", "live 2", "live 3")
	cmd := p.Load(&models.Chat{ID: "a"}, true, active)
	msg := loaded(t, cmd)
	p.Apply(msg)

	if f.callCount() != 0 {
		t.Errorf("fetcher called %d times, want 0 for the active chat", f.callCount())
	}
	if got := len(p.Messages()); got != 3 {
		t.Fatalf("Messages() = %d, want 3", got)
	}
	if p.Messages()[0].Content != "live 1" {
		t.Errorf("Messages()[0] = %q, want live 1", p.Messages()[0].Content)
	}
}

func TestPreviewOnlyLatestLoadApplies(t *testing.T) {
	f := newFakeFetcher()
	f.msgs["a"] = messagesFor("a", "from a")
	f.msgs["b"] = messagesFor("b", "from b")
	gateA := make(chan struct{})
	f.gates["a"] = gateA
	p := NewPreview(f, 0, discardLogger())

	cmdA := p.Load(&models.Chat{ID: "a"}, false, nil)
	cmdB := p.Load(&models.Chat{ID: "b"}, false, nil)

	if !p.Apply(loaded(t, cmdB)) {
		t.Fatal("Apply() rejected the latest load")
	}

	// resolve the first load only after the second has been applied
	done := make(chan tea.Msg)
	go func() { done <- cmdA() }()
	close(gateA)
	stale := (<-done).(PreviewLoadedMsg)

	if p.Apply(stale) {
		t.Error("Apply() accepted a superseded load")
	}
	if p.ChatID() != "b" {
		t.Errorf("ChatID() = %q, want b", p.ChatID())
	}
	if msgs := p.Messages(); len(msgs) != 1 || msgs[0].Content != "from b" {
		t.Errorf("Messages() = %+v, want the result for b", msgs)
	}
}

func TestPreviewTeardownDropsInFlightLoad(t *testing.T) {
	f := newFakeFetcher()
	f.msgs["a"] = messagesFor("a", "late")
	p := NewPreview(f, 0, discardLogger())

	cmd := p.Load(&models.Chat{ID: "a"}, false, nil)
	p.Teardown()
	msg := loaded(t, cmd)

	if p.Apply(msg) {
		t.Error("Apply() accepted a load resolved after teardown")
	}
	if p.Loading() || p.ChatID() != "" || len(p.Messages()) != 0 {
		t.Errorf("state changed after teardown: loading=%v chat=%q msgs=%d",
			p.Loading(), p.ChatID(), len(p.Messages()))
	}
}

func TestPreviewMinimumDisplayTime(t *testing.T) {
	const minDisplay = 40 * time.Millisecond

	tests := []struct {
		name   string
		active bool
	}{
		{"fetch", false},
		{"active chat", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			p := NewPreview(f, minDisplay, discardLogger())

			start := time.Now()
			cmd := p.Load(&models.Chat{ID: "a"}, tt.active, nil)
			msg := loaded(t, cmd)
			elapsed := time.Since(start)

			if elapsed < minDisplay {
				t.Errorf("load resolved after %s, want at least %s", elapsed, minDisplay)
			}
			if !p.Loading() {
				t.Error("Loading() should stay true until the result is applied")
			}
			p.Apply(msg)
			if p.Loading() {
				t.Error("Loading() should be false after Apply")
			}
		})
	}
}

func TestPreviewFetchErrorBecomesEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.err = errors.New("boom")
	var buf bytes.Buffer
	p := NewPreview(f, 0, slog.New(slog.NewTextHandler(&buf, nil)))

	msg := loaded(t, p.Load(&models.Chat{ID: "a"}, false, nil))
	if msg.Err == nil {
		t.Error("expected the error to be carried in the message")
	}
	if !p.Apply(msg) {
		t.Fatal("Apply() rejected the failed load")
	}
	if p.Loading() || len(p.Messages()) != 0 {
		t.Errorf("after failure loading=%v msgs=%d, want false and 0", p.Loading(), len(p.Messages()))
	}
	if !strings.Contains(buf.String(), "Error fetching cached messages") {
		t.Errorf("expected the failure to be logged, got %q", buf.String())
	}
}

func TestPreviewCancelledFetchIsNotLogged(t *testing.T) {
	f := newFakeFetcher()
	f.err = context.Canceled
	var buf bytes.Buffer
	p := NewPreview(f, 0, slog.New(slog.NewTextHandler(&buf, nil)))

	loaded(t, p.Load(&models.Chat{ID: "a"}, false, nil))
	if buf.Len() != 0 {
		t.Errorf("cancellation should not be logged, got %q", buf.String())
	}
}
