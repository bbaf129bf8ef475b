package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"google.golang.org/genai"

	"screenshot2code-go/internal/registry"
)

// ErrorKind classifies a provider failure so callers can decide what to tell
// the client without inspecting provider-specific error types.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindAuth
	KindNotFound
	KindRateLimit
	KindCanceled
)

// Error is a classified provider failure.
type Error struct {
	Kind     ErrorKind
	Provider registry.Provider
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps a raw provider error with its kind. Already-classified
// errors pass through unchanged.
func Classify(provider registry.Provider, err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindCanceled, Provider: provider, Message: "request canceled", Err: err}
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return statusError(provider, oaiErr.StatusCode, err)
	}
	var genErr genai.APIError
	if errors.As(err, &genErr) {
		return statusError(provider, genErr.Code, err)
	}
	return &Error{Kind: KindOther, Provider: provider, Message: "request failed", Err: err}
}

func statusError(provider registry.Provider, status int, err error) *Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindAuth, Provider: provider, Message: "invalid API key", Err: err}
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Provider: provider, Message: "model not found", Err: err}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Provider: provider, Message: "rate limited", Err: err}
	default:
		return &Error{Kind: KindOther, Provider: provider, Message: fmt.Sprintf("request failed with status %d", status), Err: err}
	}
}
