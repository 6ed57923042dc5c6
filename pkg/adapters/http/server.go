// Package http exposes the conversation engine as a stateful JSON API with an
// SSE stream of session diffs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/aretw0/lendflow/pkg/runner"
	"github.com/aretw0/lendflow/pkg/session"
)

// Server serves the session API.
type Server struct {
	engine   ports.Conversation
	sessions *session.Manager
	streams  *StreamManager
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreamManager shares a StreamManager, e.g. with another adapter.
func WithStreamManager(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// NewServer creates a Server.
func NewServer(engine ports.Conversation, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(0, s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for the engine, with CORS enabled.
func NewHandler(engine ports.Conversation, sessions *session.Manager, opts ...Option) http.Handler {
	return enableCORS(NewServer(engine, sessions, opts...).Router())
}

// Router builds the chi router with every route.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/messages", s.SendMessage)
			r.Post("/next", s.NextMessage)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

// Streams returns the server's stream manager.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>lendflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "lendflow-http",
		"version":     strings.TrimSpace(lendflow.Version),
		"api_version": apiVersion,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, "List", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

type createRequest struct {
	ID string `json:"id"`
}

// CreateSession handles POST /sessions. The body is optional.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("CreateSession: invalid request body", "err", err)
			return
		}
	}

	ctx := r.Context()
	if body.ID == "" {
		sess := s.engine.Start(ctx, "")
		if err := s.sessions.Save(ctx, sess.ID, sess); err != nil {
			s.fail(w, "CreateSession", err)
			return
		}
		s.writeJSON(w, http.StatusCreated, sess)
		return
	}

	created := false
	sess, err := s.sessions.LoadOrStart(ctx, body.ID, func(id string) *domain.Session {
		created = true
		return s.engine.Start(ctx, id)
	})
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	if !created {
		http.Error(w, fmt.Sprintf("session %q already exists", body.ID), http.StatusConflict)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Text *string `json:"text"`
}

// SendMessage handles POST /sessions/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == nil {
		http.Error(w, "Invalid request body: expected {\"text\": string}", http.StatusBadRequest)
		s.logger.Warn("SendMessage: invalid request body", "err", err)
		return
	}

	reply, err := s.update(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *domain.Session) (*runner.Reply, error) {
		return runner.Send(ctx, s.engine, sess, *body.Text)
	})
	if err != nil {
		s.fail(w, "SendMessage", err)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

// NextMessage handles POST /sessions/{id}/next.
func (s *Server) NextMessage(w http.ResponseWriter, r *http.Request) {
	reply, err := s.update(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, sess *domain.Session) (*runner.Reply, error) {
		return runner.Next(sess), nil
	})
	if err != nil {
		s.fail(w, "NextMessage", err)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

// update runs fn under the session lock, saves, and broadcasts the diff.
func (s *Server) update(ctx context.Context, id string, fn func(context.Context, *domain.Session) (*runner.Reply, error)) (*runner.Reply, error) {
	var (
		reply *runner.Reply
		diff  *domain.SessionDiff
	)
	_, err := s.sessions.Update(ctx, id, func(ctx context.Context, sess *domain.Session) error {
		before := sess.Snapshot()
		var err error
		if reply, err = fn(ctx, sess); err != nil {
			return err
		}
		diff = domain.Diff(before, sess)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if diff != nil {
		if raw, err := json.Marshal(diff); err == nil {
			s.streams.Broadcast(id, string(raw))
		}
	}
	return reply, nil
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The optional watch query filters diffs by state, data, history or pending.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(f))
		}
	}

	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: subscribed", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matchesWatch(msg string, watch []string) bool {
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch field {
		case "state":
			if diff.State != nil {
				return true
			}
		case "data":
			if len(diff.Data) > 0 {
				return true
			}
		case "history":
			if diff.History != nil || diff.Reset {
				return true
			}
		case "pending":
			if diff.Pending != nil {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// fail maps engine and store errors to status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn(op+": input rejected", "err", err)
	case errors.Is(err, domain.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
		s.logger.Error(op+": session in invalid state", "err", err)
	default:
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
		s.logger.Error(op+" failed", "err", err)
	}
}
