package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// ErrRateLimited marks throttling responses from the backend. The resilient
// wrapper retries these; anything else is treated as fatal for the attempt.
var ErrRateLimited = errors.New("llm: rate limited")

// RateLimitedError wraps a backend throttling response so callers can match
// it with errors.Is(err, ErrRateLimited) while keeping the raw detail.
func RateLimitedError(status int, body string) error {
	return fmt.Errorf("%w: status %d: %s", ErrRateLimited, status, body)
}
