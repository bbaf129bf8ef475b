package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/config"
	"screenshot2code-go/internal/logging"
	"screenshot2code-go/internal/server"
	"screenshot2code-go/internal/storage"
	"screenshot2code-go/internal/upstream"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *debug {
		cfg.Debug = true
	}

	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	log.Infof("Starting screenshot2code (config: %s)", *configPath)

	var current atomic.Pointer[config.Config]
	current.Store(&cfg)

	watcher := config.NewWatcher(*configPath, func(next config.Config) {
		if *debug {
			next.Debug = true
		}
		if err := logging.Setup(next); err != nil {
			log.WithError(err).Warn("failed to reconfigure logging after reload")
		}
		current.Store(&next)
	})
	if err := watcher.Start(); err != nil {
		log.WithError(err).Warn("config watcher unavailable; reload on change disabled")
	} else {
		defer watcher.Stop()
	}

	store := openStorage(cfg)
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()

	router := server.Build(func() config.Config { return *current.Load() }, store, upstream.Stream)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete")
	}
	log.Info("Server stopped")
}

// openStorage builds the artifact backend. Persistence is best-effort for the
// whole service, so a backend that cannot initialize degrades to the file
// backend, and failing that, to no persistence at all.
func openStorage(cfg config.Config) storage.Backend {
	store, err := storage.Open(cfg)
	if err != nil {
		log.WithError(err).Error("invalid storage configuration; running without persistence")
		return nil
	}
	if store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Initialize(ctx); err == nil {
		return store
	} else if cfg.StorageBackend == "file" {
		log.WithError(err).Error("file storage initialization failed; running without persistence")
		return nil
	} else {
		log.WithError(err).Warnf("%s storage initialization failed; falling back to file backend", cfg.StorageBackend)
	}

	fallback := storage.NewFileBackend(cfg.StorageBaseDir)
	if err := fallback.Initialize(ctx); err != nil {
		log.WithError(err).Error("file backend fallback failed; running without persistence")
		return nil
	}
	return fallback
}
