package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"recall/internal/models"

	"github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	reply string
	err   error
	req   openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.reply == "" {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
		},
	}, nil
}

func TestReplyMapsRoles(t *testing.T) {
	fc := &fakeCompleter{reply: "hi!"}
	c := NewWithCompleter(fc, "test-model")

	got, err := c.Reply(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hey"},
		{Role: models.RoleUser, Content: "how are you"},
	})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got != "hi!" {
		t.Errorf("Reply() = %q, want hi!", got)
	}

	if fc.req.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", fc.req.Model)
	}
	wantRoles := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	if len(fc.req.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(fc.req.Messages), len(wantRoles))
	}
	for i, role := range wantRoles {
		if fc.req.Messages[i].Role != role {
			t.Errorf("Messages[%d].Role = %q, want %q", i, fc.req.Messages[i].Role, role)
		}
	}
}

func TestReplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *Client
	}{
		{"no key", New("", "m")},
		{"api error", NewWithCompleter(&fakeCompleter{err: errors.New("rate limited")}, "m")},
		{"no choices", NewWithCompleter(&fakeCompleter{}, "m")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.client.Reply(context.Background(), nil); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := New("", "m").Reply(context.Background(), nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
}

func TestGenerateTitle(t *testing.T) {
	fc := &fakeCompleter{reply: "  \"Trip planning to Lisbon\"\nextra line"}
	c := NewWithCompleter(fc, "m")

	title, err := c.GenerateTitle(context.Background(), "help me plan a trip to Lisbon")
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "Trip planning to Lisbon" {
		t.Errorf("GenerateTitle() = %q", title)
	}
	if fc.req.Messages[1].Content != "help me plan a trip to Lisbon" {
		t.Errorf("first message not sent, got %q", fc.req.Messages[1].Content)
	}
}

func TestCleanTitleCapsLength(t *testing.T) {
	got := CleanTitle(strings.Repeat("a", 100))
	if n := len([]rune(got)); n != maxTitleRunes {
		t.Errorf("len = %d, want %d", n, maxTitleRunes)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("CleanTitle() = %q, want ellipsis", got)
	}
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "short"},
		{"  spaced\n out  ", "spaced out"},
		{"this message is definitely longer than thirty runes", "this message is definitely ..."},
	}
	for _, tt := range tests {
		if got := FallbackTitle(tt.in); got != tt.want {
			t.Errorf("FallbackTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
