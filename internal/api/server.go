package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/a2a"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/config"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with every route, wrapped in CORS handling.
func NewRouter(cfg config.ServerConfig, h *Handler) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware())

	router.GET("/health", h.HandleHealth)
	router.POST("/analyze", h.HandleAnalyze)
	router.POST("/follow-up", h.HandleFollowUp)
	router.POST("/follow-up/suggest", h.HandleSuggest)

	agent := a2a.NewHandler(h.svc, a2a.DefaultAgentCard())
	router.GET("/.well-known/agent.json", agent.ServeAgentCard)
	router.POST("/a2a/analyze", agent.HandleMessage)

	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			files := http.FileServer(http.Dir(cfg.StaticDir))
			router.NoRoute(func(c *gin.Context) {
				if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
					c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
					return
				}
				files.ServeHTTP(c.Writer, c.Request)
			})
		} else {
			zap.L().Debug("static directory not found, skipping", zap.String("dir", cfg.StaticDir))
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
	}).Handler(router)
}

// Listen binds the first free port in [port, port+attempts). It returns the
// listener and the port actually bound. Errors other than "address in use"
// are returned immediately.
func Listen(port, attempts int) (net.Listener, int, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		p := port + i
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err == nil {
			return ln, ln.Addr().(*net.TCPAddr).Port, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, eris.Wrapf(err, "api: listen on port %d", p)
		}
		zap.L().Warn("port is busy, trying next", zap.Int("port", p), zap.Int("next", p+1))
		lastErr = err
	}

	return nil, 0, eris.Wrapf(lastErr, "api: no free port in %d-%d", port, port+attempts-1)
}

// Serve runs the HTTP server on ln until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "api: serve")
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "api: shutdown")
	}
	return nil
}
