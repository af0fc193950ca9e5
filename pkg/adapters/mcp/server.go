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

	"github.com/aretw0/polya"
	"github.com/aretw0/polya/pkg/catalog"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/runner"
	"github.com/aretw0/polya/pkg/session"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ExercisesURI = "polya://exercises"
	MethodURI    = "polya://method"
	CasesURI     = "polya://cases"
)

// Engine defines what the MCP server needs from Polya.
type Engine interface {
	Start(ctx context.Context, sessionID string, exerciseIndex int) (*domain.Session, error)
	SelectExercise(ctx context.Context, s *domain.Session, index int) (*domain.Session, error)
	GoToStep(ctx context.Context, s *domain.Session, index int) (*domain.Session, error)
	PreviousStep(ctx context.Context, s *domain.Session) (*domain.Session, error)
	SetAnswer(ctx context.Context, s *domain.Session, stepIndex int, text string) (*domain.Session, error)
	ToggleHint(ctx context.Context, s *domain.Session, stepIndex int) (*domain.Session, error)
	Advance(ctx context.Context, s *domain.Session) (*domain.Session, error)
	Reset(ctx context.Context, s *domain.Session) (*domain.Session, error)
	Render(ctx context.Context, s *domain.Session) (*domain.View, error)
	Validate(s *domain.Session) error
	Exercises() []domain.Exercise
	Catalog() *catalog.Catalog
}

var _ Engine = (*polya.Engine)(nil)

// SessionArgs addresses a stored session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// StartArgs are the arguments of start_session.
type StartArgs struct {
	SessionID     string `json:"session_id,omitempty"`
	ExerciseIndex int    `json:"exercise_index,omitempty"`
}

// IndexArgs are the arguments of select_exercise and go_to_step.
type IndexArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// AnswerArgs are the arguments of set_answer. Step defaults to the active step.
type AnswerArgs struct {
	SessionID string `json:"session_id"`
	Step      *int   `json:"step,omitempty"`
	Text      string `json:"text"`
}

// HintArgs are the arguments of toggle_hint. Step defaults to the active step.
type HintArgs struct {
	SessionID string `json:"session_id"`
	Step      *int   `json:"step,omitempty"`
}

// Server wraps the Polya engine and a session manager and exposes them as an MCP server.
type Server struct {
	engine    Engine
	manager   *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, manager *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  engine,
		manager: manager,
		logger:  logger,
		mcpServer: server.NewMCPServer("polya-mcp", strings.TrimSpace(polya.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           cors.AllowAll().Handler(mux),
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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier"))
	optionalStep := mcp.WithNumber("step", mcp.Description("Step index (0-based); defaults to the active step"))

	s.mcpServer.AddTool(mcp.NewTool("list_exercises",
		mcp.WithDescription("List the practice exercises in catalog order."),
	), s.handleListExercises)

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a fresh session on an exercise. An existing session with the same ID is replaced."),
		mcp.WithString("session_id", mcp.Description("Session identifier; generated when omitted")),
		mcp.WithNumber("exercise_index", mcp.Description("Exercise index (0-based), default 0")),
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("view_session",
		mcp.WithDescription("Render the current view of a session."),
		sessionID,
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleView))

	s.mcpServer.AddTool(mcp.NewTool("select_exercise",
		mcp.WithDescription("Switch the session to another exercise, discarding progress."),
		sessionID,
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Exercise index (0-based)")),
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("go_to_step",
		mcp.WithDescription("Jump to a step of the current exercise."),
		sessionID,
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Step index (0-based)")),
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleGoTo))

	s.mcpServer.AddTool(mcp.NewTool("previous_step",
		mcp.WithDescription("Move back one step. Stays on the first step."),
		sessionID,
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handlePrevious))

	s.mcpServer.AddTool(mcp.NewTool("set_answer",
		mcp.WithDescription("Replace the answer text of a step."),
		sessionID,
		optionalStep,
		mcp.WithString("text", mcp.Required(), mcp.Description("Answer text")),
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("toggle_hint",
		mcp.WithDescription("Show or hide the hints of a step."),
		sessionID,
		optionalStep,
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleHint))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Move to the next step, or complete the exercise on the last step."),
		sessionID,
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Clear answers, hints and score of the current exercise."),
		sessionID,
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleReset))
}

func (s *Server) handleListExercises(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type summary struct {
		Index      int    `json:"index"`
		ID         string `json:"id"`
		Title      string `json:"title"`
		Difficulty string `json:"difficulty"`
		Category   string `json:"category"`
		Steps      int    `json:"steps"`
	}
	exercises := s.engine.Exercises()
	out := make([]summary, len(exercises))
	for i, ex := range exercises {
		out[i] = summary{i, ex.ID, ex.Title, ex.Difficulty, ex.Category, ex.StepCount()}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (domain.View, error) {
	id := strings.TrimSpace(args.SessionID)
	if id == "" {
		id = uuid.NewString()
	}
	sess, err := s.engine.Start(ctx, id, args.ExerciseIndex)
	if err != nil {
		return domain.View{}, fmt.Errorf("start failed: %w", err)
	}
	if err := s.manager.Save(ctx, id, sess); err != nil {
		return domain.View{}, fmt.Errorf("save failed: %w", err)
	}
	return s.render(ctx, sess)
}

func (s *Server) handleView(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.View, error) {
	sess, err := s.manager.Load(ctx, args.SessionID)
	if err == nil {
		err = s.engine.Validate(sess)
	}
	if err != nil {
		return domain.View{}, fmt.Errorf("view failed: %w", err)
	}
	return s.render(ctx, sess)
}

// handleSelect skips session validation: switching exercises is how a session
// bound to an exercise that left the catalog gets back to a valid state.
func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args IndexArgs) (domain.View, error) {
	return s.apply(ctx, "select_exercise", args.SessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.SelectExercise(ctx, cur, args.Index)
	})
}

func (s *Server) handleGoTo(ctx context.Context, request mcp.CallToolRequest, args IndexArgs) (domain.View, error) {
	return s.transition(ctx, "go_to_step", args.SessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.GoToStep(ctx, cur, args.Index)
	})
}

func (s *Server) handlePrevious(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.View, error) {
	return s.transition(ctx, "previous_step", args.SessionID, s.engine.PreviousStep)
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest, args AnswerArgs) (domain.View, error) {
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP set_answer: input rejected", "err", err, "size", len(args.Text))
		return domain.View{}, fmt.Errorf("input rejected: %w", err)
	}
	return s.transition(ctx, "set_answer", args.SessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.SetAnswer(ctx, cur, stepOrActive(args.Step, cur), clean)
	})
}

func (s *Server) handleHint(ctx context.Context, request mcp.CallToolRequest, args HintArgs) (domain.View, error) {
	return s.transition(ctx, "toggle_hint", args.SessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.ToggleHint(ctx, cur, stepOrActive(args.Step, cur))
	})
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.View, error) {
	return s.transition(ctx, "advance", args.SessionID, s.engine.Advance)
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.View, error) {
	return s.transition(ctx, "reset", args.SessionID, s.engine.Reset)
}

func stepOrActive(step *int, cur *domain.Session) int {
	if step != nil {
		return *step
	}
	return cur.StepIndex
}

// transition validates the stored session against the catalog before running fn.
func (s *Server) transition(ctx context.Context, op, sessionID string, fn session.TransitionFunc) (domain.View, error) {
	return s.apply(ctx, op, sessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		if err := s.engine.Validate(cur); err != nil {
			return nil, err
		}
		return fn(ctx, cur)
	})
}

func (s *Server) apply(ctx context.Context, op, sessionID string, fn session.TransitionFunc) (domain.View, error) {
	next, err := s.manager.Update(ctx, sessionID, fn)
	if err != nil {
		s.logger.Debug("MCP tool rejected", "tool", op, "session_id", sessionID, "err", err)
		return domain.View{}, fmt.Errorf("%s failed: %w", op, err)
	}
	return s.render(ctx, next)
}

func (s *Server) render(ctx context.Context, sess *domain.Session) (domain.View, error) {
	view, err := s.engine.Render(ctx, sess)
	if err != nil {
		return domain.View{}, fmt.Errorf("render failed: %w", err)
	}
	return *view, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ExercisesURI, "Exercise Catalog",
		mcp.WithResourceDescription("Every exercise with its steps, hints and sample answers"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(ExercisesURI, s.engine.Exercises())
	})

	s.mcpServer.AddResource(mcp.NewResource(MethodURI, "Four-Step Method",
		mcp.WithResourceDescription("Stage descriptions, strategies and common mistakes"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(MethodURI, s.engine.Catalog().Method)
	})

	s.mcpServer.AddResource(mcp.NewResource(CasesURI, "Worked Cases",
		mcp.WithResourceDescription("Pre-authored problems walked through all four stages"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(CasesURI, s.engine.Catalog().Cases)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
