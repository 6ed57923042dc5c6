// Package mcp exposes the conversation engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/aretw0/lendflow/pkg/runner"
	"github.com/aretw0/lendflow/pkg/session"
)

// SessionsURI is the resource listing stored session IDs.
const SessionsURI = "lendflow://sessions"

// StartArgs are the arguments of start_session.
type StartArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

// MessageArgs are the arguments of send_message.
type MessageArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// SessionArgs are the arguments of get_session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Conversation
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Conversation, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("lendflow-mcp", strings.TrimSpace(lendflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a loan application session. The greeting is returned in messages."),
		mcp.WithString("session_id", mcp.Description("Session ID to create (optional; a UUID is generated when omitted)")),
		mcp.WithOutputSchema[runner.Reply](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send the applicant's message and receive the assistant's replies."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by start_session")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Applicant input, e.g. 'loan', '5 lakh', 'ABCDE1234F'")),
		mcp.WithOutputSchema[runner.Reply](),
	), mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Inspect a session: state, collected data and history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[domain.Session](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))
}

// Handler methods for structured tools

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (runner.Reply, error) {
	var (
		sess    *domain.Session
		created bool
		err     error
	)
	if args.SessionID == "" {
		sess = s.engine.Start(ctx, "")
		created = true
		err = s.sessions.Save(ctx, sess.ID, sess)
	} else {
		sess, err = s.sessions.LoadOrStart(ctx, args.SessionID, func(id string) *domain.Session {
			created = true
			return s.engine.Start(ctx, id)
		})
	}
	if err != nil {
		return runner.Reply{}, fmt.Errorf("start failed: %w", err)
	}
	if !created {
		return runner.Reply{}, fmt.Errorf("session %q already exists", args.SessionID)
	}

	// The greeting is delivered with the reply.
	reply, err := s.update(ctx, sess.ID, func(_ context.Context, sess *domain.Session) (*runner.Reply, error) {
		return runner.Deliver(sess), nil
	})
	if err != nil {
		return runner.Reply{}, err
	}
	return *reply, nil
}

func (s *Server) handleSendMessage(ctx context.Context, _ mcp.CallToolRequest, args MessageArgs) (runner.Reply, error) {
	if args.SessionID == "" {
		return runner.Reply{}, errors.New("session_id is required")
	}
	reply, err := s.update(ctx, args.SessionID, func(ctx context.Context, sess *domain.Session) (*runner.Reply, error) {
		return runner.Send(ctx, s.engine, sess, args.Text)
	})
	if err != nil {
		s.logger.Warn("MCP send_message failed", "session_id", args.SessionID, "err", err)
		return runner.Reply{}, fmt.Errorf("send failed: %w", err)
	}
	return *reply, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.Session, error) {
	sess, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load failed: %w", err)
	}
	return *sess, nil
}

func (s *Server) update(ctx context.Context, id string, fn func(context.Context, *domain.Session) (*runner.Reply, error)) (*runner.Reply, error) {
	var reply *runner.Reply
	_, err := s.sessions.Update(ctx, id, func(ctx context.Context, sess *domain.Session) error {
		var err error
		reply, err = fn(ctx, sess)
		return err
	})
	return reply, err
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
