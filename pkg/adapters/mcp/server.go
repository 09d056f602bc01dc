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

	"github.com/aretw0/parsetrail/internal/logging"
	"github.com/aretw0/parsetrail/internal/presentation/graph"
	rebuild "github.com/aretw0/parsetrail/internal/replay"
	"github.com/aretw0/parsetrail/pkg/coordinator"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/replay"
	"github.com/aretw0/parsetrail/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const sessionsURI = "parsetrail://sessions"

// StepResponse aligns with the HTTP View schema and adds a Mermaid drawing of the snapshot.
type StepResponse struct {
	View    *replay.View `json:"view" jsonschema_description:"The replay view at the current cursor"`
	Moved   bool         `json:"moved" jsonschema_description:"Whether the cursor changed position"`
	Mermaid string       `json:"mermaid,omitempty" jsonschema_description:"Mermaid flowchart of the derivation"`
}

// ParseArgs are the arguments of the parse_sentence tool.
type ParseArgs struct {
	SessionID    string `json:"session_id"`
	Sentence     string `json:"sentence"`
	Grammar      string `json:"grammar"`
	Algorithm    string `json:"algorithm"`
	Backtracking bool   `json:"backtracking"`
}

// StepArgs are the arguments of the replay_step tool.
type StepArgs struct {
	SessionID string `json:"session_id"`
	Cursor    *int   `json:"cursor,omitempty"`
}

// NavigateArgs are the arguments of the navigate tool.
type NavigateArgs struct {
	SessionID string `json:"session_id"`
	Direction string `json:"direction"`
	Cursor    int    `json:"cursor"`
}

// Server exposes parse sessions as MCP tools.
type Server struct {
	coordinator *coordinator.Coordinator
	engine      *replay.Engine
	sessions    *session.Manager
	logger      *slog.Logger
	mcpServer   *server.MCPServer
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
func NewServer(coord *coordinator.Coordinator, engine *replay.Engine, sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		coordinator: coord,
		engine:      engine,
		sessions:    sessions,
		logger:      logging.NewNop(),
		mcpServer:   server.NewMCPServer("parsetrail-mcp", strings.TrimSpace(version)),
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

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
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
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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

		s.logger.Info("Shutdown signal received, stopping MCP server")
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
	// TOOL: parse_sentence
	parseTool := mcp.NewTool("parse_sentence",
		mcp.WithDescription("Ask the parsing service for a trace and load it into the session. The cursor starts at the first step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to load the trace into")),
		mcp.WithString("sentence", mcp.Required(), mcp.Description("Space separated input words")),
		mcp.WithString("grammar", mcp.Required(), mcp.Description("Grammar text, one rule per line (s --> np,vp)")),
		mcp.WithString("algorithm", mcp.Required(), mcp.Enum("top-down", "bottom-up"), mcp.Description("Parsing strategy")),
		mcp.WithBoolean("backtracking", mcp.Description("Use the backtracking variant of the strategy")),
	)
	s.mcpServer.AddTool(parseTool, mcp.NewStructuredToolHandler(s.handleParse))

	// TOOL: replay_step
	stepTool := mcp.NewTool("replay_step",
		mcp.WithDescription("Show the derivation at the session cursor, or at the given cursor without moving it."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to read")),
		mcp.WithNumber("cursor", mcp.Description("Step to show instead of the current one (optional)")),
	)
	s.mcpServer.AddTool(stepTool, mcp.NewStructuredToolHandler(s.handleStep))

	// TOOL: navigate
	navigateTool := mcp.NewTool("navigate",
		mcp.WithDescription("Move the session cursor one step forward, one step back, or to an absolute step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to navigate")),
		mcp.WithString("direction", mcp.Required(), mcp.Enum(replay.DirectionNext, replay.DirectionPrev, replay.DirectionSeek), mcp.Description("Kind of move")),
		mcp.WithNumber("cursor", mcp.Description("Target step for seek")),
	)
	s.mcpServer.AddTool(navigateTool, mcp.NewStructuredToolHandler(s.handleNavigate))
}

func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest, args ParseArgs) (StepResponse, error) {
	if args.SessionID == "" {
		return StepResponse{}, errors.New("session_id is required")
	}
	if strings.TrimSpace(args.Sentence) == "" || strings.TrimSpace(args.Grammar) == "" {
		return StepResponse{}, fmt.Errorf("%w: sentence and grammar are required", coordinator.ErrInvalidInput)
	}

	v, err := s.coordinator.Run(ctx, args.SessionID, coordinator.Input{
		Sentence:     args.Sentence,
		Grammar:      args.Grammar,
		Strategy:     args.Algorithm,
		Backtracking: args.Backtracking,
	})
	if err != nil {
		s.logger.Warn("MCP Parse: request failed", "session_id", args.SessionID, "error", err)
		return StepResponse{}, fmt.Errorf("parse failed: %w", err)
	}
	return respond(v, true), nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args StepArgs) (StepResponse, error) {
	sess, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return StepResponse{}, fmt.Errorf("load session: %w", err)
	}
	if args.Cursor != nil {
		// Preview only; the stored cursor stays where it is.
		sess.Seek(*args.Cursor)
	}
	v, err := s.engine.View(ctx, sess)
	if err != nil {
		return StepResponse{}, fmt.Errorf("replay failed: %w", err)
	}
	return respond(v, false), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args NavigateArgs) (StepResponse, error) {
	var (
		v     *replay.View
		moved bool
		err   error
	)
	switch args.Direction {
	case replay.DirectionNext:
		v, moved, err = s.engine.Next(ctx, args.SessionID)
	case replay.DirectionPrev:
		v, moved, err = s.engine.Prev(ctx, args.SessionID)
	case replay.DirectionSeek:
		v, moved, err = s.engine.Seek(ctx, args.SessionID, args.Cursor)
	default:
		return StepResponse{}, fmt.Errorf("unknown direction %q", args.Direction)
	}
	if err != nil {
		return StepResponse{}, fmt.Errorf("navigate failed: %w", err)
	}
	return respond(v, moved), nil
}

func respond(v *replay.View, moved bool) StepResponse {
	resp := StepResponse{View: v, Moved: moved}
	if v.Snapshot != nil {
		overlay := &graph.GraphOverlay{Truncated: v.Snapshot.Truncated}
		if v.Snapshot.Tree != nil {
			overlay.Pending = rebuild.LeftmostUnexpanded(v.Snapshot.Tree)
		}
		resp.Mermaid = graph.GenerateMermaid(v.Snapshot, overlay)
	}
	return resp
}

func (s *Server) registerResources() {
	// EXPOSE: parsetrail://sessions
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Known parse sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		summaries := make([]sessionSummary, 0, len(ids))
		for _, id := range ids {
			sess, err := s.sessions.Load(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrSessionNotFound) {
					continue
				}
				return nil, err
			}
			summaries = append(summaries, sessionSummary{
				ID:        sess.ID,
				Algorithm: sess.Algorithm,
				Steps:     sess.Len(),
				Cursor:    sess.Cursor,
			})
		}
		jsonBytes, _ := json.Marshal(summaries)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      sessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

type sessionSummary struct {
	ID        string           `json:"id"`
	Algorithm domain.Algorithm `json:"algorithm"`
	Steps     int              `json:"steps"`
	Cursor    int              `json:"cursor"`
}
