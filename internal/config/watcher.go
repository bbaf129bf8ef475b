package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the configuration file on change and hands the fresh
// Config to the onReload callback. Sessions capture their configuration at
// session start, so a reload only affects new sessions.
type Watcher struct {
	configPath string
	onReload   func(Config)
	stopCh     chan struct{}
}

// NewWatcher creates a watcher for the given config file path. onReload is
// invoked from the watcher goroutine; the callback must be safe to call
// concurrently with config readers.
func NewWatcher(configPath string, onReload func(Config)) *Watcher {
	return &Watcher{configPath: configPath, onReload: onReload, stopCh: make(chan struct{})}
}

// Start begins watching. It returns an error only when the watcher cannot be
// created at all; a file that does not exist yet is watched via its directory.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory too, to catch atomic writes (rename operations).
	if err := watcher.Add(filepath.Dir(w.configPath)); err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(w.configPath); err != nil {
		log.WithError(err).WithField("path", w.configPath).Debug("config file not watchable yet")
	}

	log.WithField("path", w.configPath).Info("config file watcher started")

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != w.configPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(100*time.Millisecond, w.reload)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")

			case <-w.stopCh:
				if debounce != nil {
					debounce.Stop()
				}
				return
			}
		}
	}()
	return nil
}

// Stop terminates the watcher goroutine.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.configPath)
	if err != nil {
		log.WithError(err).Warn("config reload failed, keeping previous configuration")
		return
	}
	log.Info("configuration reloaded")
	w.onReload(cfg)
}
