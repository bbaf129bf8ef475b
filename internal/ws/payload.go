package ws

import (
	"encoding/json"
	"fmt"
)

// PromptContent is prompt text plus optional images (data URLs).
type PromptContent struct {
	Text   string   `json:"text"`
	Images []string `json:"images"`
}

// GenerateCodeParams is the typed request payload for /generate-code.
// Unknown fields are tolerated so older and newer frontends keep working.
type GenerateCodeParams struct {
	// Generation params
	GenerationType     string          `json:"generationType"`
	InputMode          string          `json:"inputMode"`
	Prompt             PromptContent   `json:"prompt"`
	History            []PromptContent `json:"history"`
	IsImportedFromCode bool            `json:"isImportedFromCode"`

	// Settings merged into the payload by the frontend
	OpenAIAPIKey             string `json:"openAiApiKey"`
	OpenAIBaseURL            string `json:"openAiBaseURL"`
	AnthropicAPIKey          string `json:"anthropicApiKey"`
	GeminiAPIKey             string `json:"geminiApiKey"`
	IsImageGenerationEnabled *bool  `json:"isImageGenerationEnabled"`
	GeneratedCodeConfig      string `json:"generatedCodeConfig"`
	CodeGenerationModel      string `json:"codeGenerationModel"`
	AnalysisModel            string `json:"analysisModel"`
}

// DecodeParams converts the generic request map into the typed payload,
// applying defaults and rejecting out-of-range enum values.
func DecodeParams(params map[string]any) (GenerateCodeParams, error) {
	var p GenerateCodeParams
	raw, err := json.Marshal(params)
	if err != nil {
		return p, fmt.Errorf("re-encode params: %w", err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid request payload: %w", err)
	}

	if p.GenerationType == "" {
		p.GenerationType = "create"
	}
	if p.InputMode == "" {
		p.InputMode = "image"
	}
	if p.GeneratedCodeConfig == "" {
		p.GeneratedCodeConfig = "html_tailwind"
	}

	switch p.GenerationType {
	case "create", "update":
	default:
		return p, fmt.Errorf("invalid generationType: %q", p.GenerationType)
	}
	switch p.InputMode {
	case "text", "image", "video":
	default:
		return p, fmt.Errorf("invalid inputMode: %q", p.InputMode)
	}
	return p, nil
}
