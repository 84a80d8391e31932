package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server hosts the apiv1 routes plus an unauthenticated health endpoint
// (spec §6: "Health is registered separately, unauthenticated").
type Server struct {
	Engine  *gin.Engine
	Addr    string
	db      *sql.DB
	backend string
	started time.Time
}

// New builds a Server bound to addr. backend names the active
// store.Store implementation ("postgres" or "memory") so /health can
// report which one is live without importing internal/store and creating
// an import cycle back to internal/apiv1's transport layer. db is nil
// when backend is "memory" — there is nothing to ping.
func New(addr string, db *sql.DB, backend string, mode string) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	s := &Server{
		Engine:  r,
		Addr:    addr,
		db:      db,
		backend: backend,
		started: time.Now(),
	}

	r.GET("/health", s.healthHandler)

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			slog.Error("Health check failed: database unreachable", "error", err, "backend", s.backend)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"backend": s.backend,
				"error":   "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"backend":        s.backend,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("Starting HTTP server", "address", s.Addr, "backend", s.backend)

	go func() {
		<-ctx.Done()
		slog.Info("Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
