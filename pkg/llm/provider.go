package llm

import (
	"context"
	"errors"
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

// ErrorKind classifies provider failures so callers can choose between
// degrading, retrying once, or failing the request.
type ErrorKind string

const (
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindRateLimited ErrorKind = "rate_limited"
	ErrKindAuth        ErrorKind = "auth"
	ErrKindUnavailable ErrorKind = "unavailable"
	ErrKindMalformed   ErrorKind = "malformed"
)

// ProviderError wraps a provider failure with its classification.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return "llm provider error (" + string(e.Kind) + "): " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProviderError(kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Err: err}
}

// KindOf extracts the classification from err; unclassified errors count as
// unavailable.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	return ErrKindUnavailable
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
