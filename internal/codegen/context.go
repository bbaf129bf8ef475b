// Package codegen orchestrates one code generation session: parameter
// intake, prompt assembly, multi-variant generation, and post-processing,
// composed as pipeline stages over a shared session context.
package codegen

import (
	"errors"
	"net/http"

	"screenshot2code-go/internal/analysis"
	"screenshot2code-go/internal/config"
	"screenshot2code-go/internal/monitoring"
	"screenshot2code-go/internal/prompts"
	"screenshot2code-go/internal/registry"
	"screenshot2code-go/internal/storage"
	"screenshot2code-go/internal/upstream"
	"screenshot2code-go/internal/ws"
)

// errReported marks errors whose variantError message has already been sent,
// so the supervisor does not send a second one.
var errReported = errors.New("variant error already sent")

// reportedError wraps err as already reported to the client.
func reportedError(err error) error {
	return &alreadyReported{err: err}
}

type alreadyReported struct {
	err error
}

func (a *alreadyReported) Error() string { return a.err.Error() }
func (a *alreadyReported) Unwrap() error { return a.err }
func (a *alreadyReported) Is(target error) bool {
	return target == errReported
}

// ExtractedParams is the validated request state the stages operate on.
type ExtractedParams struct {
	Stack              prompts.Stack
	InputMode          registry.InputMode
	GenerationType     registry.GenerationType
	Prompt             ws.PromptContent
	History            []ws.PromptContent
	IsImportedFromCode bool

	ShouldGenerateImages bool
	PreferredModel       string
	AnalysisModel        string
	UseElementExtraction bool

	Keys         upstream.Keys
	ReplicateKey string
}

// Context carries session state through the pipeline. Stages populate it in
// order; later stages rely on what earlier stages produced.
type Context struct {
	W   http.ResponseWriter
	R   *http.Request
	Cfg config.Config

	Comm      *ws.Communicator
	Params    map[string]any
	Extracted ExtractedParams

	PromptMessages []upstream.Message
	ImageCache     map[string]string

	VariantModels      []registry.Entry
	VariantCompletions map[int]string
	Completions        []string

	Store storage.Backend

	// StreamFn performs one provider generation. Production wiring sets
	// upstream.Stream; tests substitute a fake.
	StreamFn upstream.StreamFunc

	// AssetFn extracts element assets during image analysis. Nil means
	// analysis.ExtractAssets.
	AssetFn analysis.AssetFunc
}

func (c *Context) send(t ws.MessageType, value string, variantIndex int) error {
	return c.Comm.Send(t, value, variantIndex)
}

func (c *Context) fail(message string) {
	monitoring.SessionFailuresTotal.Inc()
	c.Comm.Fail(message)
}
