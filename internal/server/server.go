// Package server exposes a loaded cohort over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/cohortctl/internal/observability"
	"github.com/danmuck/cohortctl/internal/rank"
	"github.com/danmuck/cohortctl/internal/record"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Addr        string
	CorsOrigins []string
	TopLimit    int
	CourseLimit int
}

// Server serves one cohort. The cohort is never mutated once the server
// exists, so handlers read it without locking.
type Server struct {
	ID       string
	Addr     string
	Appeared time.Time

	cohort      *record.Cohort
	topLimit    int
	courseLimit int
	router      *gin.Engine
}

func New(id string, c *record.Cohort, opts Options) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	if c == nil {
		c = record.NewCohort(0)
	}
	c.Reindex()
	s := &Server{
		ID:          id,
		Addr:        opts.Addr,
		Appeared:    time.Now(),
		cohort:      c,
		topLimit:    orDefault(opts.TopLimit, rank.DefaultTopLimit),
		courseLimit: orDefault(opts.CourseLimit, rank.DefaultCourseLimit),
		router:      r,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Int("students", s.cohort.Len()).Msg("server: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Str("addr", s.Addr).Msg("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
