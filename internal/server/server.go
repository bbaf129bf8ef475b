// Package server assembles the HTTP surface: the generation WebSocket
// endpoint, the model catalog, and health checks, behind the shared gin
// middleware stack.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/codegen"
	"screenshot2code-go/internal/config"
	"screenshot2code-go/internal/logging"
	"screenshot2code-go/internal/middleware"
	"screenshot2code-go/internal/storage"
	"screenshot2code-go/internal/upstream"
)

// Build constructs the router. current is read once per generation session,
// so a config reload affects new sessions without touching running ones.
// store may be nil when artifact persistence is disabled; streamFn is the
// provider dispatch used by generation sessions.
func Build(current func() config.Config, store storage.Backend, streamFn upstream.StreamFunc) *gin.Engine {
	cfg := current()
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.IsProd, cfg.CORSAllowOrigins))
	if cfg.RateLimitEnabled {
		r.Use(middleware.RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	r.GET("/", home)
	r.GET("/healthz", healthz(store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/models", getModels)
	r.GET("/generate-code", generateCode(current, store, streamFn))

	return r
}

func home(c *gin.Context) {
	c.String(http.StatusOK, "Your backend is running correctly. Please open the front-end URL in your browser to use screenshot-to-code.")
}

func healthz(store storage.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{"status": "ok"}
		code := http.StatusOK
		if store != nil {
			if err := store.Health(c.Request.Context()); err != nil {
				resp["status"] = "degraded"
				resp["storage"] = err.Error()
				code = http.StatusServiceUnavailable
			} else {
				resp["storage"] = "ok"
			}
		}
		c.JSON(code, resp)
	}
}

// generateCode upgrades the request to a WebSocket and runs the generation
// pipeline. The pipeline owns the connection from here; errors it returns
// have already been reported to the client, so they are only logged.
func generateCode(current func() config.Config, store storage.Backend, streamFn upstream.StreamFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := &codegen.Context{
			W:        c.Writer,
			R:        c.Request,
			Cfg:      current(),
			Store:    store,
			StreamFn: streamFn,
		}
		if err := codegen.NewPipeline().Execute(c.Request.Context(), sc); err != nil {
			logging.WithReq(c, log.Fields{"error": err.Error()}).Error("generation session failed")
		}
	}
}
