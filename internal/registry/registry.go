// Package registry holds the static model capability table: which provider
// owns each model, which input modes and generation types it supports, and
// the provider-specific tuning the streaming clients read. The table is
// built once at process start and never mutated, so concurrent reads from
// generation tasks need no locking.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// Provider identifies the upstream vendor owning a model.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// GenerationType is the requested operation kind.
type GenerationType string

const (
	GenerationCreate GenerationType = "create"
	GenerationUpdate GenerationType = "update"
)

// InputMode is the category of the primary prompt input.
type InputMode string

const (
	InputText  InputMode = "text"
	InputImage InputMode = "image"
	InputVideo InputMode = "video"
)

// ErrUnknownBackend is returned when a model identity is not in the table.
var ErrUnknownBackend = errors.New("unknown backend")

// ProviderParams is a closed union of per-provider tuning. Exactly one
// concrete type exists per provider, so a call site asking for the wrong
// provider's parameters is a programming error surfaced by the ok flag, not
// a runtime string comparison.
type ProviderParams interface {
	provider() Provider
}

// OpenAIParams tunes OpenAI chat completion calls.
type OpenAIParams struct {
	SupportsStreaming   bool
	Temperature         *float64 // nil when the model rejects temperature
	MaxTokens           int
	MaxCompletionTokens int
	ReasoningEffort     string
}

func (OpenAIParams) provider() Provider { return ProviderOpenAI }

// AnthropicParams tunes Anthropic messages calls.
type AnthropicParams struct {
	MaxTokens            int
	Temperature          float64
	UseThinking          bool
	ThinkingBudgetTokens int
	Betas                []string
}

func (AnthropicParams) provider() Provider { return ProviderAnthropic }

// GeminiParams tunes Gemini generateContent calls.
type GeminiParams struct {
	MaxOutputTokens int32
	Temperature     float32
	ThinkingBudget  *int32
	IncludeThoughts bool
}

func (GeminiParams) provider() Provider { return ProviderGemini }

// Entry describes one backend model. Entries are immutable values.
type Entry struct {
	ID              string
	Provider        Provider
	DisplayName     string
	InputModes      []InputMode
	GenerationTypes []GenerationType
	Params          ProviderParams
}

// SupportsInput reports whether the entry accepts the given input mode.
func (e Entry) SupportsInput(m InputMode) bool {
	for _, im := range e.InputModes {
		if im == m {
			return true
		}
	}
	return false
}

// SupportsGeneration reports whether the entry accepts the generation type.
func (e Entry) SupportsGeneration(t GenerationType) bool {
	for _, gt := range e.GenerationTypes {
		if gt == t {
			return true
		}
	}
	return false
}

// OpenAI returns the OpenAI tuning parameters, ok=false for other providers.
func (e Entry) OpenAI() (OpenAIParams, bool) {
	p, ok := e.Params.(OpenAIParams)
	return p, ok
}

// Anthropic returns the Anthropic tuning parameters.
func (e Entry) Anthropic() (AnthropicParams, bool) {
	p, ok := e.Params.(AnthropicParams)
	return p, ok
}

// Gemini returns the Gemini tuning parameters.
func (e Entry) Gemini() (GeminiParams, bool) {
	p, ok := e.Params.(GeminiParams)
	return p, ok
}

// Get looks up a model by identity.
func Get(id string) (Entry, error) {
	e, ok := models[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownBackend, id)
	}
	return e, nil
}

// IsCompatible reports whether the model supports the requested generation
// type and input mode. Unknown models are compatible with nothing.
func IsCompatible(id string, t GenerationType, m InputMode) bool {
	e, ok := models[id]
	if !ok {
		return false
	}
	return e.SupportsGeneration(t) && e.SupportsInput(m)
}

// LatestForProvider returns the provider's current best model identity, used
// as the no-preference fallback during selection.
func LatestForProvider(p Provider) string {
	return latestByProvider[p]
}

// All returns every entry, sorted by identity.
func All() []Entry {
	out := make([]Entry, 0, len(models))
	for _, e := range models {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
