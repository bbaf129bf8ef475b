// Package selection picks the backend model for each variant slot.
package selection

import (
	"errors"

	"screenshot2code-go/internal/registry"

	log "github.com/sirupsen/logrus"
)

// ErrNoUsableBackend is returned when no provider has both a credential and
// a compatible model for the request.
var ErrNoUsableBackend = errors.New("no usable backend for request")

// Credentials records which providers have a usable key for this session.
type Credentials struct {
	OpenAI    bool
	Anthropic bool
	Gemini    bool
}

func (c Credentials) has(p registry.Provider) bool {
	switch p {
	case registry.ProviderOpenAI:
		return c.OpenAI
	case registry.ProviderAnthropic:
		return c.Anthropic
	case registry.ProviderGemini:
		return c.Gemini
	}
	return false
}

// providerPriority is the fixed fallback order when no usable preference is
// given. Deterministic and auditable; not recency- or cost-based.
var providerPriority = []registry.Provider{
	registry.ProviderOpenAI,
	registry.ProviderAnthropic,
	registry.ProviderGemini,
}

// SelectVariants returns exactly numVariants backend entries, one per task
// slot. A preferred model is honored for every slot when it is known,
// credentialed, and compatible; an unusable preference silently falls back
// to provider priority order because the preference is a hint, not a
// contract.
func SelectVariants(
	generationType registry.GenerationType,
	inputMode registry.InputMode,
	creds Credentials,
	preferredID string,
	numVariants int,
) ([]registry.Entry, error) {
	if preferredID != "" {
		if e, err := registry.Get(preferredID); err == nil &&
			creds.has(e.Provider) &&
			registry.IsCompatible(e.ID, generationType, inputMode) {
			return repeat(e, numVariants), nil
		}
		log.WithField("model", preferredID).Debug("preferred model unusable, falling back to provider priority")
	}

	for _, p := range providerPriority {
		if !creds.has(p) {
			continue
		}
		candidate := registry.LatestForProvider(p)
		if !registry.IsCompatible(candidate, generationType, inputMode) {
			continue
		}
		e, err := registry.Get(candidate)
		if err != nil {
			continue
		}
		return repeat(e, numVariants), nil
	}

	return nil, ErrNoUsableBackend
}

func repeat(e registry.Entry, n int) []registry.Entry {
	out := make([]registry.Entry, n)
	for i := range out {
		out[i] = e
	}
	return out
}
