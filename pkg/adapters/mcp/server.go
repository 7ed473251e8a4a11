// Package mcp exposes trial planning and scoring as Model Context Protocol tools.
//
// Sessions themselves are timed and belong to a runner or the HTTP host;
// the tools here are the stateless pieces an assistant can reason about.
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

	"github.com/aretw0/mrt"
	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/identity"
	"github.com/aretw0/mrt/pkg/results"
	"github.com/aretw0/mrt/pkg/runner"
	"github.com/aretw0/mrt/pkg/scoring"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ConfigURI is the resource holding the active configuration.
const ConfigURI = "mrt://config"

// ErrMissingIdentity is returned when a plan is requested without identifiers.
var ErrMissingIdentity = errors.New("participant_id or session_code required")

// PlanArgs are the arguments of plan_trials.
type PlanArgs struct {
	ParticipantID string `json:"participant_id,omitempty"`
	SessionCode   string `json:"session_code,omitempty"`
	// Overrides is a JSON object of configuration fields.
	Overrides string `json:"overrides,omitempty"`
}

// PlanResponse is the generated trial order for an identity.
type PlanResponse struct {
	SeedKey  string             `json:"seed_key" jsonschema_description:"The string the order was derived from"`
	Seed     uint32             `json:"seed" jsonschema_description:"32-bit seed of the generator"`
	Practice []domain.TrialSpec `json:"practice" jsonschema_description:"Practice block, in presentation order"`
	Main     []domain.TrialSpec `json:"main" jsonschema_description:"Main block, in presentation order"`
	Same     int                `json:"same" jsonschema_description:"Main trials of the same condition"`
	Mirror   int                `json:"mirror" jsonschema_description:"Main trials of the mirror condition"`
}

// ScoreArgs are the arguments of score_response.
type ScoreArgs struct {
	Condition domain.Condition `json:"condition"`
	Input     string           `json:"input"`
}

// ScoreResponse grades one input.
type ScoreResponse struct {
	Ignored  bool             `json:"ignored" jsonschema_description:"True when the input does not resolve a trial"`
	Response domain.Response  `json:"response,omitempty"`
	Correct  bool             `json:"correct"`
	Feedback *domain.Feedback `json:"feedback,omitempty"`
}

// SummaryArgs are the arguments of summarize_results.
type SummaryArgs struct {
	Records   string `json:"records"`
	TotalMain int    `json:"total_main,omitempty"`
}

// Server exposes the engine as an MCP server.
type Server struct {
	engine    *mrt.Engine
	keymap    scoring.Keymap
	logger    *slog.Logger
	clock     func() time.Time
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock stamps generated summaries.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.clock = now
	}
}

// NewServer creates an MCP server for cfg.
func NewServer(cfg config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		logger: logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	engine, err := mrt.New(cfg, mrt.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.engine = engine
	s.keymap = scoring.Keymap{Same: cfg.SameKey, Mirror: cfg.MirrorKey}
	s.mcpServer = server.NewMCPServer("mrt-mcp", strings.TrimSpace(mrt.Version))
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on port using SSE until ctx is done.
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("plan_trials",
		mcp.WithDescription("Generate the practice and main trial order for a participant. The same identity always yields the same order."),
		mcp.WithString("participant_id", mcp.Description("Participant ID (used when no session code is given)")),
		mcp.WithString("session_code", mcp.Description("Session code (wins over the participant ID)")),
		mcp.WithString("overrides", mcp.Description("JSON object of configuration overrides (optional)")),
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handlePlan))

	s.mcpServer.AddTool(mcp.NewTool("score_response",
		mcp.WithDescription("Resolve a raw key or control against the key map and grade it for a trial condition."),
		mcp.WithString("condition", mcp.Required(), mcp.Enum(string(domain.ConditionSame), string(domain.ConditionMirror))),
		mcp.WithString("input", mcp.Required(), mcp.Description("Raw key or control identity")),
		mcp.WithOutputSchema[ScoreResponse](),
	), mcp.NewStructuredToolHandler(s.handleScore))

	s.mcpServer.AddTool(mcp.NewTool("summarize_results",
		mcp.WithDescription("Compute the session summary of JSONL trial records. Only main-block records count."),
		mcp.WithString("records", mcp.Required(), mcp.Description("Trial records, one JSON object per line")),
		mcp.WithNumber("total_main", mcp.Description("Total main trials of the session (defaults to the configured count)")),
		mcp.WithOutputSchema[domain.SessionSummary](),
	), mcp.NewStructuredToolHandler(s.handleSummarize))

	s.mcpServer.AddTool(mcp.NewTool("describe_config",
		mcp.WithDescription("Get the active experiment configuration."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.engine.Config())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args PlanArgs) (PlanResponse, error) {
	id := identity.Normalize(domain.Identity{ParticipantID: args.ParticipantID, SessionCode: args.SessionCode})
	if id.SeedKey() == "" {
		return PlanResponse{}, ErrMissingIdentity
	}

	engine := s.engine
	if args.Overrides != "" {
		var overrides map[string]any
		if err := json.Unmarshal([]byte(args.Overrides), &overrides); err != nil {
			return PlanResponse{}, fmt.Errorf("invalid overrides: %w", err)
		}
		cfg, err := config.Apply(s.engine.Config(), overrides)
		if err != nil {
			return PlanResponse{}, err
		}
		if engine, err = mrt.New(cfg, mrt.WithLogger(s.logger)); err != nil {
			return PlanResponse{}, err
		}
	}

	plan, err := engine.Plan(id.SeedKey())
	if err != nil {
		return PlanResponse{}, fmt.Errorf("plan failed: %w", err)
	}
	resp := PlanResponse{SeedKey: plan.SeedKey, Seed: plan.Seed, Practice: plan.Practice, Main: plan.Main}
	for _, t := range plan.Main {
		if t.Condition == domain.ConditionMirror {
			resp.Mirror++
		} else {
			resp.Same++
		}
	}
	return resp, nil
}

func (s *Server) handleScore(ctx context.Context, request mcp.CallToolRequest, args ScoreArgs) (ScoreResponse, error) {
	if args.Condition != domain.ConditionSame && args.Condition != domain.ConditionMirror {
		return ScoreResponse{}, fmt.Errorf("unknown condition %q", args.Condition)
	}
	clean, err := runner.SanitizeInput(args.Input)
	if err != nil {
		s.logger.Warn("MCP score: input rejected", "err", err, "size", len(args.Input))
		return ScoreResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	resp, ok := s.keymap.Resolve(clean)
	if !ok {
		return ScoreResponse{Ignored: true}, nil
	}
	correct := scoring.Score(resp, args.Condition)
	fb := scoring.Feedback(resp, correct)
	return ScoreResponse{Response: resp, Correct: correct, Feedback: &fb}, nil
}

func (s *Server) handleSummarize(ctx context.Context, request mcp.CallToolRequest, args SummaryArgs) (domain.SessionSummary, error) {
	records, err := results.ReadJSONL(strings.NewReader(args.Records))
	if err != nil {
		return domain.SessionSummary{}, err
	}
	total := args.TotalMain
	if total <= 0 {
		plan, err := s.engine.Plan("summary")
		if err != nil {
			return domain.SessionSummary{}, err
		}
		total = len(plan.Main)
	}
	return results.Summarize(records, total, s.clock()), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ConfigURI, "Experiment Configuration",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Config())
		if err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ConfigURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
