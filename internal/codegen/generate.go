package codegen

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/codeutil"
	"screenshot2code-go/internal/imagegen"
	"screenshot2code-go/internal/logging"
	"screenshot2code-go/internal/monitoring"
	"screenshot2code-go/internal/pipeline"
	"screenshot2code-go/internal/prompts"
	"screenshot2code-go/internal/registry"
	"screenshot2code-go/internal/selection"
	"screenshot2code-go/internal/streaming"
	"screenshot2code-go/internal/upstream"
	"screenshot2code-go/internal/ws"
)

const variantCompleteMessage = "Variant generation complete"

// GenerationStage runs the actual code generation: the mock stream in mock
// mode, the Anthropic-only video flow for video input, and otherwise N
// parallel variants with per-variant failure isolation.
type GenerationStage struct{}

func NewGenerationStage() *GenerationStage { return &GenerationStage{} }

var _ pipeline.Middleware[*Context] = (*GenerationStage)(nil)

func (s *GenerationStage) Process(ctx context.Context, c *Context, next func() error) error {
	c.VariantCompletions = map[int]string{}

	switch {
	case c.Cfg.MockResponses:
		if err := s.generateMock(ctx, c); err != nil {
			return err
		}
	case c.Extracted.InputMode == registry.InputVideo:
		if err := s.generateVideo(ctx, c); err != nil {
			return err
		}
	default:
		done, err := s.generateVariants(ctx, c)
		if err != nil || !done {
			return err
		}
	}
	return next()
}

func (s *GenerationStage) generateMock(ctx context.Context, c *Context) error {
	cfg := streaming.MockConfig{
		ChunkSize:  c.Cfg.MockChunkSize,
		ChunkDelay: time.Duration(c.Cfg.MockChunkDelayMs) * time.Millisecond,
	}
	completion, err := streaming.Mock(ctx, c.Extracted.InputMode == registry.InputVideo, cfg, func(text string) {
		c.send(ws.MessageChunk, text, 0)
	})
	if err != nil {
		return err
	}
	c.send(ws.MessageSetCode, completion, 0)
	c.send(ws.MessageVariantComplete, variantCompleteMessage, 0)
	c.Completions = []string{completion}
	return nil
}

func (s *GenerationStage) generateVideo(ctx context.Context, c *Context) error {
	if c.Extracted.Keys.Anthropic == "" {
		msg := "Video only works with Anthropic models. No Anthropic API key found. " +
			"Please add the environment variable ANTHROPIC_API_KEY to the backend or in the settings dialog"
		c.fail(msg)
		return errors.New("no anthropic key for video mode")
	}

	entry, err := registry.Get(registry.VideoModelID)
	if err != nil {
		c.fail("An unexpected error occurred: " + err.Error())
		return err
	}

	msgs := append([]upstream.Message{{Role: upstream.RoleSystem, Text: prompts.VideoPrompt}}, c.PromptMessages...)
	taskCtx, cancel := context.WithTimeout(ctx, c.generationTimeout())
	defer cancel()

	completion, err := c.StreamFn(taskCtx, entry, msgs, c.Extracted.Keys, func(text string) {
		c.send(ws.MessageChunk, text, 0)
	})
	if err != nil {
		c.fail("An unexpected error occurred: " + err.Error())
		return err
	}

	processed := codeutil.ExtractHTML(codeutil.StripThinking(completion.Code))
	c.send(ws.MessageSetCode, processed, 0)
	c.send(ws.MessageVariantComplete, variantCompleteMessage, 0)
	c.Completions = []string{completion.Code}
	return nil
}

// generateVariants fans out one generation task per variant. done is false
// when the session has failed and the pipeline should stop without an error
// (every variant already got its variantError and the session its error
// frame).
func (s *GenerationStage) generateVariants(ctx context.Context, c *Context) (done bool, err error) {
	creds := selection.Credentials{
		OpenAI:    c.Extracted.Keys.OpenAI != "",
		Anthropic: c.Extracted.Keys.Anthropic != "",
		Gemini:    c.Extracted.Keys.Gemini != "",
	}
	models, err := selection.SelectVariants(
		c.Extracted.GenerationType, c.Extracted.InputMode,
		creds, c.Extracted.PreferredModel, c.Cfg.NumVariants)
	if err != nil {
		c.fail("No OpenAI or Anthropic API key found. Please add the environment variable " +
			"OPENAI_API_KEY or ANTHROPIC_API_KEY to the backend or in the settings dialog. " +
			"If you add it to .env, make sure to restart the backend server.")
		return false, err
	}
	c.VariantModels = models
	for i, m := range models {
		log.WithFields(log.Fields{"session_id": c.Comm.SessionID(), "variant": i + 1}).
			Infof("variant model: %s", m.ID)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for index, entry := range models {
		wg.Add(1)
		go func(index int, entry registry.Entry) {
			defer wg.Done()
			// A panicking task must stay variant-local: convert it into the
			// generic variantError path instead of killing the process.
			defer func() {
				if r := recover(); r != nil {
					c.send(ws.MessageVariantError, fmt.Sprintf("An unexpected error occurred: %v", r), index)
					monitoring.RecordVariant(string(entry.Provider), "failed", 0)
					logging.WithVariant(c.Comm.SessionID(), index).
						WithField("stack", string(debug.Stack())).
						Errorf("variant panic recovered: %v", r)
				}
			}()
			taskCtx, cancel := context.WithTimeout(ctx, c.generationTimeout())
			defer cancel()

			completion, err := s.runVariant(taskCtx, c, index, entry)
			if err != nil {
				if !errors.Is(err, errReported) {
					c.send(ws.MessageVariantError, err.Error(), index)
				}
				monitoring.RecordVariant(string(entry.Provider), "failed", 0)
				logging.WithVariant(c.Comm.SessionID(), index).WithError(err).Warn("variant failed")
				return
			}

			mu.Lock()
			c.VariantCompletions[index] = completion.Code
			mu.Unlock()
			monitoring.RecordVariant(string(entry.Provider), "completed", completion.Duration.Seconds())
			log.Infof("%s completion took %.2f seconds", entry.ID, completion.Duration.Seconds())

			s.completeVariant(taskCtx, c, index, completion.Code)
		}(index, entry)
	}
	wg.Wait()

	if len(c.VariantCompletions) == 0 {
		c.fail("Error generating code. Please contact support.")
		return false, nil
	}

	c.Completions = make([]string, len(models))
	for i := range models {
		c.Completions[i] = c.VariantCompletions[i]
	}
	return true, nil
}

// runVariant streams one variant. Classified provider failures send their
// specific variantError here and come back wrapped as already reported.
func (s *GenerationStage) runVariant(ctx context.Context, c *Context, index int, entry registry.Entry) (upstream.Completion, error) {
	completion, err := c.StreamFn(ctx, entry, c.PromptMessages, c.Extracted.Keys, func(text string) {
		c.send(ws.MessageChunk, text, index)
	})
	if err != nil {
		classified := upstream.Classify(entry.Provider, err)
		switch classified.Kind {
		case upstream.KindAuth, upstream.KindNotFound, upstream.KindRateLimit:
			c.send(ws.MessageVariantError, variantErrorMessage(classified, c.Cfg.IsProd), index)
			return upstream.Completion{}, reportedError(classified)
		default:
			return upstream.Completion{}, classified
		}
	}
	return completion, nil
}

// completeVariant applies the image cache, optionally generates images, and
// delivers the variant's terminal messages.
func (s *GenerationStage) completeVariant(ctx context.Context, c *Context, index int, code string) {
	processed := imagegen.ApplyImageCache(code, c.ImageCache)

	if c.Extracted.ShouldGenerateImages {
		gen, model, ok := imagegen.PickGenerator(
			c.Extracted.Keys.Gemini, c.Extracted.ReplicateKey,
			c.Extracted.Keys.OpenAI, c.Extracted.Keys.OpenAIBaseURL)
		if ok {
			log.Debugf("generating images with model: %s", model)
			processed = imagegen.GenerateImages(ctx, processed, c.ImageCache, gen)
		} else {
			log.Debug("no image generation key available, skipping image generation")
		}
	}

	processed = codeutil.ExtractHTML(processed)
	c.send(ws.MessageSetCode, processed, index)
	c.send(ws.MessageVariantComplete, variantCompleteMessage, index)
}

func (c *Context) generationTimeout() time.Duration {
	return time.Duration(c.Cfg.GenerationTimeoutSec) * time.Second
}

// variantErrorMessage renders a classified provider failure for the client.
func variantErrorMessage(e *upstream.Error, isProd bool) string {
	prodSuffix := ""
	if isProd {
		prodSuffix = " Alternatively, you can purchase code generation credits directly on this website."
	}

	if e.Provider == registry.ProviderOpenAI {
		switch e.Kind {
		case upstream.KindAuth:
			return "Incorrect OpenAI key. Please make sure your OpenAI API key is correct, " +
				"or create a new OpenAI API key on your OpenAI dashboard." + prodSuffix
		case upstream.KindNotFound:
			return e.Message + ". Please make sure you have followed the instructions correctly to obtain " +
				"an OpenAI key with GPT vision access." + prodSuffix
		case upstream.KindRateLimit:
			return "OpenAI error - 'You exceeded your current quota, please check your plan and billing details.'" + prodSuffix
		}
	}

	switch e.Kind {
	case upstream.KindAuth:
		return fmt.Sprintf("Incorrect %s key. Please make sure your API key is correct.%s", providerName(e.Provider), prodSuffix)
	case upstream.KindNotFound:
		return fmt.Sprintf("%s model not found: %s.%s", providerName(e.Provider), e.Message, prodSuffix)
	case upstream.KindRateLimit:
		return fmt.Sprintf("%s rate limit exceeded. Please try again later.%s", providerName(e.Provider), prodSuffix)
	default:
		return e.Error()
	}
}

func providerName(p registry.Provider) string {
	switch p {
	case registry.ProviderOpenAI:
		return "OpenAI"
	case registry.ProviderAnthropic:
		return "Anthropic"
	case registry.ProviderGemini:
		return "Gemini"
	default:
		return string(p)
	}
}
