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

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// ControllersURI is the resource listing the loaded controllers.
const ControllersURI = "switchboard://controllers"

// Engine is the Turn API plus the descriptor listing used for resources.
type Engine interface {
	ports.TurnEngine
	Descriptors() []domain.Descriptor
}

// SubmitTurnArgs are the arguments of the submit_turn tool.
type SubmitTurnArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	UserID    string `json:"user_id,omitempty"`
}

// ResumeTurnArgs are the arguments of the resume_turn tool.
type ResumeTurnArgs struct {
	SessionID string `json:"session_id"`
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason,omitempty"`
}

// SessionArgs identify a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// SessionState is the session_state tool output.
type SessionState struct {
	SessionID string                  `json:"session_id" jsonschema_description:"The session key"`
	Status    domain.SessionStatus    `json:"status" jsonschema_description:"active or awaiting_approval"`
	Stack     []string                `json:"stack" jsonschema_description:"Dialog stack, bottom first"`
	Pending   *domain.PendingApproval `json:"pending,omitempty" jsonschema_description:"The suspended sensitive batch, if any"`
	UserID    string                  `json:"user_id,omitempty"`
	Messages  int                     `json:"messages" jsonschema_description:"Conversation length"`
	LastReply string                  `json:"last_reply,omitempty"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Server exposes the engine as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("switchboard-mcp", strings.TrimSpace(switchboard.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
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

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	submit := mcp.NewTool("submit_turn",
		mcp.WithDescription("Send a user message to a session and run it until the assistant replies or asks for approval."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session key; a new key starts a new conversation")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("user_id", mcp.Description("User identity, bound on the first turn only")),
		mcp.WithOutputSchema[domain.TurnResult](),
	)
	s.mcpServer.AddTool(submit, mcp.NewStructuredToolHandler(s.handleSubmitTurn))

	resume := mcp.NewTool("resume_turn",
		mcp.WithDescription("Approve or deny the sensitive actions a session is waiting on."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session key")),
		mcp.WithBoolean("approved", mcp.Required(), mcp.Description("true runs the actions, false denies them")),
		mcp.WithString("reason", mcp.Description("Optional denial reason shown to the assistant")),
		mcp.WithOutputSchema[domain.TurnResult](),
	)
	s.mcpServer.AddTool(resume, mcp.NewStructuredToolHandler(s.handleResumeTurn))

	state := mcp.NewTool("session_state",
		mcp.WithDescription("Inspect a session: status, dialog stack and pending approval."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session key")),
		mcp.WithOutputSchema[SessionState](),
	)
	s.mcpServer.AddTool(state, mcp.NewStructuredToolHandler(s.handleSessionState))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session key")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("session_id", "")
		if err := s.engine.Reset(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcp.NewToolResultText("session " + id + " discarded"), nil
	})
}

func (s *Server) handleSubmitTurn(ctx context.Context, _ mcp.CallToolRequest, args SubmitTurnArgs) (domain.TurnResult, error) {
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("mcp submit_turn: input rejected", "err", err, "size", len(args.Text))
		return domain.TurnResult{}, fmt.Errorf("input rejected: %w", err)
	}

	var opts []domain.TurnOption
	if args.UserID != "" {
		opts = append(opts, domain.WithUserID(args.UserID))
	}
	res, err := s.engine.SubmitTurn(ctx, args.SessionID, clean, opts...)
	if err != nil {
		return domain.TurnResult{}, fmt.Errorf("submit turn: %w", err)
	}
	return res, nil
}

func (s *Server) handleResumeTurn(ctx context.Context, _ mcp.CallToolRequest, args ResumeTurnArgs) (domain.TurnResult, error) {
	reason := args.Reason
	if reason != "" {
		clean, err := runner.SanitizeInput(reason)
		if err != nil {
			return domain.TurnResult{}, fmt.Errorf("reason rejected: %w", err)
		}
		reason = clean
	}
	res, err := s.engine.ResumeTurn(ctx, args.SessionID, args.Approved, reason)
	if err != nil {
		return domain.TurnResult{}, fmt.Errorf("resume turn: %w", err)
	}
	return res, nil
}

func (s *Server) handleSessionState(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (SessionState, error) {
	sess, err := s.engine.Session(ctx, args.SessionID)
	if err != nil {
		return SessionState{}, err
	}
	out := SessionState{
		SessionID: sess.ID,
		Status:    sess.Status,
		Stack:     append([]string{}, sess.Stack...),
		Pending:   sess.Pending,
		UserID:    sess.UserID(),
		Messages:  len(sess.Conversation),
		UpdatedAt: sess.UpdatedAt,
	}
	if last, ok := domain.LastReply(sess.Conversation); ok {
		out.LastReply = last.Text
	}
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ControllersURI, "Loaded Controllers",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Descriptors())
		if err != nil {
			return nil, fmt.Errorf("failed to encode controllers: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ControllersURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
