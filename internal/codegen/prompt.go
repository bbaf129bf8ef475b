package codegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/analysis"
	"screenshot2code-go/internal/pipeline"
	"screenshot2code-go/internal/prompts"
	"screenshot2code-go/internal/registry"
	"screenshot2code-go/internal/ws"
)

// PromptCreationStage assembles the provider conversation and the image
// cache from earlier turns. When the request names an analysis model it
// first runs image analysis and builds the element-based conversation
// instead.
type PromptCreationStage struct{}

func NewPromptCreationStage() *PromptCreationStage { return &PromptCreationStage{} }

var _ pipeline.Middleware[*Context] = (*PromptCreationStage)(nil)

func (s *PromptCreationStage) Process(ctx context.Context, c *Context, next func() error) error {
	if c.Extracted.UseElementExtraction {
		els, assets, err := s.analyzeImage(ctx, c)
		if err != nil {
			return err
		}
		// No assets means nothing to inject; fall back to the plain
		// screenshot conversation.
		if len(els.Elements) > 0 && len(assets) > 0 {
			return s.assembleWithElements(c, els, assets, next)
		}
	}

	msgs, imageCache, err := prompts.Assemble(prompts.Input{
		Stack:              c.Extracted.Stack,
		InputMode:          c.Extracted.InputMode,
		GenerationType:     c.Extracted.GenerationType,
		Prompt:             c.Extracted.Prompt,
		History:            c.Extracted.History,
		IsImportedFromCode: c.Extracted.IsImportedFromCode,
	})
	if err != nil {
		log.WithError(err).Error("prompt assembly failed")
		c.fail("Error assembling prompt.")
		return err
	}
	c.PromptMessages = msgs
	c.ImageCache = imageCache
	return next()
}

// analyzeImage runs element extraction on the screenshot, then cuts the
// elements out as assets. Failures are session-fatal, matching the other
// pre-generation stages.
func (s *PromptCreationStage) analyzeImage(ctx context.Context, c *Context) (analysis.Elements, map[string]string, error) {
	c.send(ws.MessageStatus, "Analyzing image and extracting elements...", 0)

	entry, err := registry.Get(c.Extracted.AnalysisModel)
	if err != nil {
		err = fmt.Errorf("invalid analysis model: %s", c.Extracted.AnalysisModel)
		c.fail("Error during image analysis: " + err.Error())
		return analysis.Elements{}, nil, err
	}
	if len(c.Extracted.Prompt.Images) == 0 {
		err = errors.New("request carries no image")
		c.fail("Error during image analysis: " + err.Error())
		return analysis.Elements{}, nil, err
	}
	imageURL := c.Extracted.Prompt.Images[0]

	c.send(ws.MessageStatus, "Extracting design elements...", 0)
	els, err := analysis.ExtractElements(ctx, imageURL, entry, c.Extracted.Keys, c.StreamFn)
	if err != nil {
		log.WithError(err).Error("element extraction failed")
		c.fail("Error during image analysis: " + err.Error())
		return analysis.Elements{}, nil, err
	}
	log.WithFields(log.Fields{
		"session_id": c.Comm.SessionID(),
		"elements":   len(els.Elements),
	}).Info("extracted design elements")

	c.send(ws.MessageStatus, "Extracting elements as assets...", 0)
	assetFn := c.AssetFn
	if assetFn == nil {
		assetFn = analysis.ExtractAssets
	}
	assets, err := assetFn(ctx, imageURL, els, c.Extracted.Keys.Gemini)
	if err != nil {
		log.WithError(err).Error("asset extraction failed")
		c.fail("Error during image analysis: " + err.Error())
		return analysis.Elements{}, nil, err
	}
	c.send(ws.MessageStatus, fmt.Sprintf("Extracted %d assets", len(assets)), 0)

	return els, assets, nil
}

// assembleWithElements builds the element-based conversation; the extracted
// assets become the image cache so post-processing injects them by alt text.
func (s *PromptCreationStage) assembleWithElements(c *Context, els analysis.Elements, assets map[string]string, next func() error) error {
	elementsJSON, err := json.MarshalIndent(els, "", "  ")
	if err != nil {
		c.fail("Error assembling prompt.")
		return err
	}

	msgs, imageCache, err := prompts.AssembleWithElements(prompts.Input{
		Stack:  c.Extracted.Stack,
		Prompt: c.Extracted.Prompt,
	}, string(elementsJSON), assets)
	if err != nil {
		log.WithError(err).Error("element prompt assembly failed")
		c.fail("Error assembling prompt.")
		return err
	}
	c.PromptMessages = msgs
	c.ImageCache = imageCache
	return next()
}
