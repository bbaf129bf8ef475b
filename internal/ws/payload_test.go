package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeParamsDefaults(t *testing.T) {
	p, err := DecodeParams(map[string]any{
		"prompt": map[string]any{"text": "a login page"},
	})
	require.NoError(t, err)
	require.Equal(t, "create", p.GenerationType)
	require.Equal(t, "image", p.InputMode)
	require.Equal(t, "html_tailwind", p.GeneratedCodeConfig)
	require.Equal(t, "a login page", p.Prompt.Text)
}

func TestDecodeParamsRejectsUnknownEnums(t *testing.T) {
	_, err := DecodeParams(map[string]any{"generationType": "remix"})
	require.Error(t, err)

	_, err = DecodeParams(map[string]any{"inputMode": "audio"})
	require.Error(t, err)
}

func TestDecodeParamsToleratesExtraFields(t *testing.T) {
	p, err := DecodeParams(map[string]any{
		"generationType":      "update",
		"inputMode":           "text",
		"someFutureField":     true,
		"codeGenerationModel": "gpt-5",
	})
	require.NoError(t, err)
	require.Equal(t, "update", p.GenerationType)
	require.Equal(t, "gpt-5", p.CodeGenerationModel)
}

func TestDecodeParamsHistoryRoundTrip(t *testing.T) {
	p, err := DecodeParams(map[string]any{
		"generationType": "update",
		"history": []any{
			map[string]any{"text": "<html>v1</html>"},
			map[string]any{"text": "make the header blue"},
		},
	})
	require.NoError(t, err)
	require.Len(t, p.History, 2)
	require.Equal(t, "make the header blue", p.History[1].Text)
}
