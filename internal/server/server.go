// Package server exposes the streaming endpoints and the execution RPCs over
// HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/shipyard/internal/agentrun"
	"github.com/haasonsaas/shipyard/internal/auth"
	"github.com/haasonsaas/shipyard/internal/chat"
	"github.com/haasonsaas/shipyard/internal/config"
	"github.com/haasonsaas/shipyard/internal/conversations"
	"github.com/haasonsaas/shipyard/internal/tool"
)

// Server hosts the AI endpoints.
type Server struct {
	cfg      *config.Config
	sessions *auth.Service
	registry *tool.Registry
	chat     *chat.Service
	runner   *agentrun.Runner
	store    conversations.Store
	logger   *slog.Logger

	httpServer *http.Server
}

// New wires the HTTP layer.
func New(cfg *config.Config, sessions *auth.Service, registry *tool.Registry,
	chatSvc *chat.Service, runner *agentrun.Runner, store conversations.Store) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		registry: registry,
		chat:     chatSvc,
		runner:   runner,
		store:    store,
		logger:   slog.Default().With("component", "http"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.Handle("POST /api/ai/stream", s.withSession(s.handleChatStream))
	mux.Handle("POST /api/ai/agent/stream", s.withSession(s.handleAgentStream))

	mux.Handle("POST /api/ai/executions/approve", s.withSession(s.handleApprove))
	mux.Handle("POST /api/ai/executions/execute", s.withSession(s.handleExecute))
	mux.Handle("POST /api/ai/executions/get", s.withSession(s.handleExecutions))

	mux.Handle("POST /api/conversations/create", s.withSession(s.handleConversationCreate))
	mux.Handle("GET /api/conversations", s.withSession(s.handleConversationList))
	mux.Handle("GET /api/conversations/{conversationID}/messages", s.withSession(s.handleMessages))

	mux.Handle("GET /api/ai", s.withSession(s.handleAIGetAll))

	return s.logRequests(mux)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("starting http server", "addr", s.cfg.ListenAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
