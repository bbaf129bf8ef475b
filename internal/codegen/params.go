package codegen

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/monitoring"
	"screenshot2code-go/internal/pipeline"
	"screenshot2code-go/internal/prompts"
	"screenshot2code-go/internal/registry"
	"screenshot2code-go/internal/upstream"
	"screenshot2code-go/internal/ws"
)

// ParamExtractionStage receives and validates the request payload and
// resolves provider credentials, preferring client-supplied keys over
// server config.
type ParamExtractionStage struct{}

func NewParamExtractionStage() *ParamExtractionStage { return &ParamExtractionStage{} }

var _ pipeline.Middleware[*Context] = (*ParamExtractionStage)(nil)

func (s *ParamExtractionStage) Process(ctx context.Context, c *Context, next func() error) error {
	params, err := c.Comm.ReceiveRequest()
	if err != nil {
		// ReceiveRequest already sent the error frame for its failure modes.
		return fmt.Errorf("receive request: %w", err)
	}
	c.Params = params

	payload, err := ws.DecodeParams(params)
	if err != nil {
		c.fail(fmt.Sprintf("Invalid request payload: %v", err))
		return err
	}

	stack := prompts.Stack(payload.GeneratedCodeConfig)
	if !prompts.Valid(stack) {
		c.fail(fmt.Sprintf("Invalid generated code config: %s", payload.GeneratedCodeConfig))
		return fmt.Errorf("invalid stack: %s", payload.GeneratedCodeConfig)
	}

	keys := upstream.Keys{
		OpenAI:    firstNonEmpty(payload.OpenAIAPIKey, c.Cfg.OpenAIAPIKey),
		Anthropic: firstNonEmpty(payload.AnthropicAPIKey, c.Cfg.AnthropicAPIKey),
		Gemini:    firstNonEmpty(payload.GeminiAPIKey, c.Cfg.GeminiAPIKey),
	}
	// Custom base URLs are disabled in production so hosted traffic always
	// goes to the official endpoint.
	if !c.Cfg.IsProd {
		keys.OpenAIBaseURL = firstNonEmpty(payload.OpenAIBaseURL, c.Cfg.OpenAIBaseURL)
	}

	shouldGenerateImages := true
	if payload.IsImageGenerationEnabled != nil {
		shouldGenerateImages = *payload.IsImageGenerationEnabled
	}

	c.Extracted = ExtractedParams{
		Stack:                stack,
		InputMode:            registry.InputMode(payload.InputMode),
		GenerationType:       registry.GenerationType(payload.GenerationType),
		Prompt:               payload.Prompt,
		History:              payload.History,
		IsImportedFromCode:   payload.IsImportedFromCode,
		ShouldGenerateImages: shouldGenerateImages,
		PreferredModel:       payload.CodeGenerationModel,
		AnalysisModel:        payload.AnalysisModel,
		UseElementExtraction: payload.AnalysisModel != "" &&
			payload.InputMode == string(registry.InputImage) &&
			payload.GenerationType == string(registry.GenerationCreate),
		Keys:                 keys,
		ReplicateKey:         c.Cfg.ReplicateAPIKey,
	}

	monitoring.SessionsTotal.WithLabelValues(payload.InputMode, payload.GenerationType).Inc()
	log.WithFields(log.Fields{
		"session_id": c.Comm.SessionID(),
		"stack":      stack,
		"input_mode": payload.InputMode,
		"type":       payload.GenerationType,
	}).Info("generating code")

	return next()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
