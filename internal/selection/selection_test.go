package selection

import (
	"testing"

	"screenshot2code-go/internal/registry"

	"github.com/stretchr/testify/require"
)

func TestPreferenceHonoredForEverySlot(t *testing.T) {
	got, err := SelectVariants(registry.GenerationCreate, registry.InputImage,
		Credentials{Anthropic: true}, "claude-sonnet-4-20250514", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, e := range got {
		require.Equal(t, "claude-sonnet-4-20250514", e.ID)
	}
}

func TestUncredentialedPreferenceFallsBack(t *testing.T) {
	// Preference is an Anthropic model but only an OpenAI key is present.
	got, err := SelectVariants(registry.GenerationCreate, registry.InputImage,
		Credentials{OpenAI: true}, "claude-sonnet-4-20250514", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, registry.LatestForProvider(registry.ProviderOpenAI), got[0].ID)
}

func TestIncompatiblePreferenceFallsBack(t *testing.T) {
	// Gemini models cannot do update; must fall back even with a Gemini key.
	got, err := SelectVariants(registry.GenerationUpdate, registry.InputImage,
		Credentials{Gemini: true, Anthropic: true}, "gemini-3-pro", 1)
	require.NoError(t, err)
	require.Equal(t, registry.LatestForProvider(registry.ProviderAnthropic), got[0].ID)
}

func TestGarbagePreferenceMatchesNoPreference(t *testing.T) {
	creds := Credentials{OpenAI: true, Anthropic: true}
	withGarbage, err := SelectVariants(registry.GenerationCreate, registry.InputImage, creds, "not-a-model", 2)
	require.NoError(t, err)
	without, err := SelectVariants(registry.GenerationCreate, registry.InputImage, creds, "", 2)
	require.NoError(t, err)
	require.Equal(t, without, withGarbage)
}

func TestPriorityOrderOpenAIFirst(t *testing.T) {
	got, err := SelectVariants(registry.GenerationCreate, registry.InputImage,
		Credentials{OpenAI: true, Anthropic: true, Gemini: true}, "", 1)
	require.NoError(t, err)
	require.Equal(t, registry.ProviderOpenAI, got[0].Provider)
}

func TestSkipsProviderWhoseLatestIsIncompatible(t *testing.T) {
	// Latest Gemini model does not support text input; with only a Gemini
	// key a text request has no usable backend.
	_, err := SelectVariants(registry.GenerationCreate, registry.InputText,
		Credentials{Gemini: true}, "", 1)
	require.ErrorIs(t, err, ErrNoUsableBackend)
}

func TestNoCredentials(t *testing.T) {
	_, err := SelectVariants(registry.GenerationCreate, registry.InputImage, Credentials{}, "", 2)
	require.ErrorIs(t, err, ErrNoUsableBackend)
}

func TestSelectionIsDeterministic(t *testing.T) {
	creds := Credentials{OpenAI: true, Gemini: true}
	first, err := SelectVariants(registry.GenerationCreate, registry.InputImage, creds, "", 4)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SelectVariants(registry.GenerationCreate, registry.InputImage, creds, "", 4)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
