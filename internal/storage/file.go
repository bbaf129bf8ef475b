package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend writes one JSON file per artifact under a base directory.
type FileBackend struct {
	baseDir string
}

// NewFileBackend creates a file backend rooted at baseDir.
func NewFileBackend(baseDir string) *FileBackend {
	if baseDir == "" {
		baseDir = "./run_logs"
	}
	return &FileBackend{baseDir: baseDir}
}

func (f *FileBackend) Initialize(ctx context.Context) error {
	return os.MkdirAll(f.baseDir, 0o755)
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) Health(ctx context.Context) error {
	info, err := os.Stat(f.baseDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.baseDir)
	}
	return nil
}

// SaveArtifact writes via a temp file and rename so readers never observe a
// partial artifact.
func (f *FileBackend) SaveArtifact(ctx context.Context, a Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", a.ID, err)
	}
	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.baseDir, "artifact-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(a.ID))
}

func (f *FileBackend) GetArtifact(ctx context.Context, id string) (Artifact, error) {
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Artifact{}, &ErrNotFound{ID: id}
		}
		return Artifact{}, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact %s: %w", id, err)
	}
	return a, nil
}

func (f *FileBackend) path(id string) string {
	return filepath.Join(f.baseDir, id+".json")
}
