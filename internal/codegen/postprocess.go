package codegen

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/codeutil"
	"screenshot2code-go/internal/monitoring"
	"screenshot2code-go/internal/pipeline"
	"screenshot2code-go/internal/storage"
)

// PostProcessingStage persists the first successful completion as an
// artifact. Persistence failures are logged and never fail the session.
type PostProcessingStage struct{}

func NewPostProcessingStage() *PostProcessingStage { return &PostProcessingStage{} }

var _ pipeline.Middleware[*Context] = (*PostProcessingStage)(nil)

func (s *PostProcessingStage) Process(ctx context.Context, c *Context, next func() error) error {
	if c.Store == nil {
		return next()
	}

	var first string
	for _, completion := range c.Completions {
		if completion != "" {
			first = completion
			break
		}
	}
	if first == "" {
		return next()
	}

	model := ""
	if len(c.VariantModels) > 0 {
		model = c.VariantModels[0].ID
	}
	artifact := storage.Artifact{
		ID:        storage.NewArtifactID(),
		SessionID: c.Comm.SessionID(),
		CreatedAt: time.Now().UTC(),
		Stack:     string(c.Extracted.Stack),
		InputMode: string(c.Extracted.InputMode),
		Model:     model,
		HTML:      codeutil.ExtractHTML(first),
	}
	if err := c.Store.SaveArtifact(ctx, artifact); err != nil {
		monitoring.ArtifactSavesTotal.WithLabelValues("error").Inc()
		log.WithError(err).Warn("failed to persist artifact")
	} else {
		monitoring.ArtifactSavesTotal.WithLabelValues("ok").Inc()
		log.WithFields(log.Fields{"session_id": c.Comm.SessionID(), "artifact_id": artifact.ID}).
			Debug("artifact persisted")
	}
	return next()
}
