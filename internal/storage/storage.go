// Package storage persists generation artifacts. Persistence is best-effort
// from the pipeline's point of view; callers log failures and move on.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"screenshot2code-go/internal/config"
)

// Artifact is one persisted generation result.
type Artifact struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Stack     string    `json:"stack"`
	InputMode string    `json:"input_mode"`
	Model     string    `json:"model,omitempty"`
	HTML      string    `json:"html"`
}

// Backend stores and retrieves artifacts.
type Backend interface {
	Initialize(ctx context.Context) error
	Close() error
	Health(ctx context.Context) error

	SaveArtifact(ctx context.Context, a Artifact) error
	GetArtifact(ctx context.Context, id string) (Artifact, error)
}

// ErrNotFound is returned when an artifact does not exist.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string { return "artifact not found: " + e.ID }

// NewArtifactID returns a fresh artifact identity.
func NewArtifactID() string { return uuid.NewString() }

// Open builds the backend named by the config. Backend "none" returns nil,
// meaning persistence is disabled.
func Open(cfg config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case "file":
		return NewFileBackend(cfg.StorageBaseDir), nil
	case "redis":
		return NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
