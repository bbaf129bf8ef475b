package codegen

import (
	"context"
	"strconv"

	"screenshot2code-go/internal/pipeline"
	"screenshot2code-go/internal/ws"
)

// StatusBroadcastStage announces the variant count and an initial status per
// variant before generation starts.
type StatusBroadcastStage struct{}

func NewStatusBroadcastStage() *StatusBroadcastStage { return &StatusBroadcastStage{} }

var _ pipeline.Middleware[*Context] = (*StatusBroadcastStage)(nil)

func (s *StatusBroadcastStage) Process(ctx context.Context, c *Context, next func() error) error {
	if err := c.send(ws.MessageVariantCount, strconv.Itoa(c.Cfg.NumVariants), 0); err != nil {
		return err
	}
	for i := 0; i < c.Cfg.NumVariants; i++ {
		if err := c.send(ws.MessageStatus, "Generating code...", i); err != nil {
			return err
		}
	}
	return next()
}
