// Package assistant talks to the chat completion API.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"recall/internal/models"

	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no API key was configured
var ErrNoAPIKey = errors.New("no OpenAI API key configured; set OPENAI_API_KEY")

const (
	systemPrompt = "You are a helpful AI assistant. Provide clear, concise, and helpful responses."
	titlePrompt  = "Write a short title, at most six words, for a conversation that starts with the message below. Reply with the title only, no quotes."

	maxTitleRunes = 60
)

// Completer is the part of the OpenAI client the assistant uses
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client produces replies and titles for chats
type Client struct {
	api   Completer
	model string
}

// New creates a client using the given API key and model. An empty key
// yields a client whose calls fail with ErrNoAPIKey.
func New(apiKey, model string) *Client {
	if apiKey == "" {
		return &Client{model: model}
	}
	return &Client{api: openai.NewClient(apiKey), model: model}
}

// NewWithCompleter creates a client on top of an existing completer
func NewWithCompleter(api Completer, model string) *Client {
	return &Client{api: api, model: model}
}

// Reply returns the assistant's answer to the conversation so far
func (c *Client) Reply(ctx context.Context, history []models.Message) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleAssistant
		if msg.Role == models.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	return c.complete(ctx, messages, 1000)
}

// GenerateTitle asks for a short title for a conversation's first message
func (c *Client) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	title, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: titlePrompt},
		{Role: openai.ChatMessageRoleUser, Content: firstMessage},
	}, 20)
	if err != nil {
		return "", err
	}
	return CleanTitle(title), nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage, maxTokens int) (string, error) {
	if c.api == nil {
		return "", ErrNoAPIKey
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return resp.Choices[0].Message.Content, nil
}

// CleanTitle trims quotes and whitespace and caps the length of a title
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.Trim(title, "\"'`")
	title = strings.TrimSpace(strings.SplitN(title, "\n", 2)[0])
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes-3]) + "..."
	}
	return title
}

// FallbackTitle derives a title from the first message when none can be generated
func FallbackTitle(firstMessage string) string {
	title := strings.Join(strings.Fields(firstMessage), " ")
	if utf8.RuneCountInString(title) > 30 {
		title = string([]rune(title)[:27]) + "..."
	}
	return title
}
