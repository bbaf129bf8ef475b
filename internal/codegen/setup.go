package codegen

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/pipeline"
	"screenshot2code-go/internal/ws"
)

// SetupStage completes the WebSocket handshake and guarantees teardown after
// the rest of the pipeline unwinds, whatever the outcome.
type SetupStage struct{}

func NewSetupStage() *SetupStage { return &SetupStage{} }

var _ pipeline.Middleware[*Context] = (*SetupStage)(nil)

func (s *SetupStage) Process(ctx context.Context, c *Context, next func() error) error {
	comm, err := ws.Accept(c.W, c.R, c.Cfg.WSMaxPayloadBytes)
	if err != nil {
		return fmt.Errorf("session setup: %w", err)
	}
	c.Comm = comm
	defer func() {
		c.Comm.Close()
		log.WithField("session_id", c.Comm.SessionID()).Info("websocket session closed")
	}()
	return next()
}
