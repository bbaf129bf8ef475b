package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetUnknownBackend(t *testing.T) {
	_, err := Get("definitely-not-a-model")
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestEveryEntryCarriesItsOwnProviderParams(t *testing.T) {
	for _, e := range All() {
		require.NotNil(t, e.Params, e.ID)
		switch e.Provider {
		case ProviderOpenAI:
			_, ok := e.OpenAI()
			require.True(t, ok, e.ID)
		case ProviderAnthropic:
			_, ok := e.Anthropic()
			require.True(t, ok, e.ID)
		case ProviderGemini:
			_, ok := e.Gemini()
			require.True(t, ok, e.ID)
		default:
			t.Fatalf("unexpected provider %q for %s", e.Provider, e.ID)
		}
	}
}

func TestParamsAccessorRejectsWrongProvider(t *testing.T) {
	e, err := Get("gpt-5")
	require.NoError(t, err)
	_, ok := e.Anthropic()
	require.False(t, ok)
}

func TestCompatibility(t *testing.T) {
	// Gemini models only support image/create.
	require.True(t, IsCompatible("gemini-3-pro", GenerationCreate, InputImage))
	require.False(t, IsCompatible("gemini-3-pro", GenerationUpdate, InputImage))
	require.False(t, IsCompatible("gemini-3-pro", GenerationCreate, InputText))

	// OpenAI models do not accept video.
	require.False(t, IsCompatible("gpt-5", GenerationCreate, InputVideo))
	require.True(t, IsCompatible("gpt-5", GenerationUpdate, InputText))

	// Anthropic supports all three input modes.
	require.True(t, IsCompatible("claude-opus-4-5-20251101", GenerationCreate, InputVideo))

	// Unknown ids are compatible with nothing.
	require.False(t, IsCompatible("nope", GenerationCreate, InputImage))
}

func TestLatestForProviderIsKnownAndOwned(t *testing.T) {
	for _, p := range []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		id := LatestForProvider(p)
		e, err := Get(id)
		require.NoError(t, err, p)
		require.Equal(t, p, e.Provider)
	}
}

func TestOverridesAreCompleteValues(t *testing.T) {
	e, err := Get("o1-2024-12-17")
	require.NoError(t, err)
	p, ok := e.OpenAI()
	require.True(t, ok)
	require.False(t, p.SupportsStreaming)
	require.Nil(t, p.Temperature)
	require.Equal(t, 20000, p.MaxCompletionTokens)

	e, err = Get("claude-sonnet-4-20250514")
	require.NoError(t, err)
	a, ok := e.Anthropic()
	require.True(t, ok)
	require.True(t, a.UseThinking)
	require.Empty(t, a.Betas)
}
