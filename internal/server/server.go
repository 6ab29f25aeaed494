// Package server serves the summary page, its websocket and the JSON API.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"readsum/internal/domain"
	"readsum/internal/pipeline"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

//go:embed templates/*.html
var templatesFS embed.FS

// Runner performs one run on a session.
type Runner interface {
	Run(ctx context.Context, session *pipeline.Session) error
}

// History lists finished runs.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

type Server struct {
	runner  Runner
	history History
	page    *template.Template
	log     *slog.Logger
}

// New builds a server. history may be nil when run history is disabled.
func New(runner Runner, history History, log *slog.Logger) (*Server, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &Server{
		runner:  runner,
		history: history,
		page:    page,
		log:     log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("POST /{$}", s.handlePageSubmit)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.HandleFunc("POST /api/summaries", s.handleCreateSummary)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return chainMiddlewares(mux, s.withLogging, s.withRequestID)
}

// ListenAndServe serves addr until ctx is done and then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.InfoContext(ctx, "HTTP server is started",
		"addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.log.InfoContext(ctx, "HTTP server is stopped",
		"addr", addr)

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
