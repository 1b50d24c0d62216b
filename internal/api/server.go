package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voicetask/internal/domain"
)

// netlifyPrefix keeps the paths older frontends were built against.
const netlifyPrefix = "/.netlify/functions"

// Filer is the filing pipeline the endpoints expose.
type Filer interface {
	File(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error)
	Groups(ctx context.Context) ([]domain.Group, error)
	Sprints(ctx context.Context) ([]domain.Sprint, error)
}

// Server is the filing HTTP API.
type Server struct {
	filer   Filer
	logger  *slog.Logger
	metrics *Metrics
	router  *gin.Engine
}

func NewServer(filer Filer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	s := &Server{filer: filer, logger: logger, metrics: NewMetrics("voicetask"), router: router}

	router.Use(requestID(), accessLog(logger), s.metrics.middleware(), recovery(logger))
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	for _, prefix := range []string{"", netlifyPrefix} {
		routes := router.Group(prefix)
		{
			routes.GET("/get-groups", s.handleGroups)
			routes.GET("/get-sprints", s.handleSprints)
			routes.Any("/send-to-teams", s.handleSendToTeams)
		}
	}

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("filing api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
