// Package server exposes the routing pipeline over HTTP: a single-shot
// processing endpoint, a conversational chat endpoint with an SSE variant,
// and the printable authorization document.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediroute/pkg/logx"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/session"
)

// Server wires the coordinator and session store into an HTTP API.
type Server struct {
	coordinator *pipeline.Coordinator
	sessions    *session.Manager
	logger      *logx.Logger
}

func New(coordinator *pipeline.Coordinator, sessions *session.Manager) *Server {
	return &Server{
		coordinator: coordinator,
		sessions:    sessions,
		logger:      logx.NewLogger("server"),
	}
}

// Router builds the chi route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/mediroute/process", s.handleProcess)
	r.Post("/chat/message", s.handleChatMessage)
	r.Post("/chat/message/stream", s.handleChatMessageStream)
	r.Get("/chat/{sessionID}/loa.pdf", s.handleLOADocument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
