// Package textgen wraps the OpenAI chat completion API behind the narrow
// contract the suggestion engine needs: send a directive pair, get raw text
// back or a transient error.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrTransient marks failures that should consume a retry attempt instead of
// aborting the request: rate limits, service unavailability and timeouts.
var ErrTransient = errors.New("transient generation failure")

type Config struct {
	Debug   bool
	Token   string
	Model   string
	Timeout time.Duration
}

type Client struct {
	debug   bool
	model   string
	timeout time.Duration
	client  *openai.Client
}

func New(cfg *Config) *Client {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		debug:   cfg.Debug,
		model:   model,
		timeout: timeout,
		client:  openai.NewClient(cfg.Token),
	}
}

// Generate sends a system and user directive and returns the raw completion
// text. Transient upstream failures are wrapped in ErrTransient so callers
// can treat them as a single failed attempt.
func (c *Client) Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            c.model,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		FrequencyPenalty: 0.7,
		PresencePenalty:  0.8,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		if c.debug {
			log.Printf("textgen: completion failed: %v\n", err)
		}
		return "", wrap(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("textgen: empty completion response: %w", ErrTransient)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("textgen: request timed out: %w", ErrTransient)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("textgen: rate limited: %w", ErrTransient)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("textgen: service unavailable: %w", ErrTransient)
		}
	}
	return fmt.Errorf("textgen: couldn't create completion: %w", err)
}
