// Package upstream streams chat completions from the supported model
// providers behind one provider-agnostic interface.
package upstream

import (
	"context"
	"time"

	"screenshot2code-go/internal/registry"
)

// Role of one chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one provider-agnostic chat message. Images are data URLs and
// only appear on user messages.
type Message struct {
	Role   Role
	Text   string
	Images []string
}

// Completion is the final result of one streamed generation.
type Completion struct {
	Code     string
	Duration time.Duration
}

// ChunkFunc receives each streamed text delta as it arrives.
type ChunkFunc func(text string)

// Keys carries the per-request provider credentials, already merged from the
// client payload and server config.
type Keys struct {
	OpenAI        string
	OpenAIBaseURL string
	Anthropic     string
	Gemini        string
}

// StreamFunc is the signature of one full streamed generation. Stream is the
// production implementation; tests substitute their own.
type StreamFunc func(ctx context.Context, entry registry.Entry, msgs []Message, keys Keys, onChunk ChunkFunc) (Completion, error)

// Stream dispatches to the provider client for the given backend entry and
// runs one full generation, invoking onChunk for every text delta.
func Stream(ctx context.Context, entry registry.Entry, msgs []Message, keys Keys, onChunk ChunkFunc) (Completion, error) {
	start := time.Now()
	var (
		code string
		err  error
	)
	switch entry.Provider {
	case registry.ProviderOpenAI:
		code, err = streamOpenAI(ctx, entry, msgs, keys.OpenAI, keys.OpenAIBaseURL, onChunk)
	case registry.ProviderAnthropic:
		code, err = streamAnthropic(ctx, entry, msgs, keys.Anthropic, onChunk)
	case registry.ProviderGemini:
		code, err = streamGemini(ctx, entry, msgs, keys.Gemini, onChunk)
	default:
		return Completion{}, &Error{Kind: KindOther, Provider: entry.Provider, Message: "unknown provider"}
	}
	if err != nil {
		return Completion{}, err
	}
	return Completion{Code: code, Duration: time.Since(start)}, nil
}
