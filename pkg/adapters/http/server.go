package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/polya"
	"github.com/aretw0/polya/pkg/catalog"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/ports"
	"github.com/aretw0/polya/pkg/runner"
	"github.com/aretw0/polya/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// Engine defines the tutorial operations the HTTP adapter drives.
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

// DefaultRequestTimeout bounds every non-streaming request.
const DefaultRequestTimeout = 30 * time.Second

// DefaultRecentCompletions is how many completions GET /progress/{user} lists
// when the recent query parameter is absent.
const DefaultRecentCompletions = 10

// Server serves the JSON API over a session manager.
type Server struct {
	Engine  Engine
	Manager *session.Manager
	Streams *StreamManager

	progress ports.ProgressStore
	logger   *slog.Logger
	origins []string
	metrics http.Handler
	newID   func() string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowedOrigins sets the CORS allow list. Defaults to "*".
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithProgressStore mounts GET /progress/{user} and GET /leaderboard.
func WithProgressStore(store ports.ProgressStore) Option {
	return func(s *Server) {
		s.progress = store
	}
}

// WithIDGenerator replaces the UUID generator used for new sessions.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewServer builds a Server. Use Handler to obtain the router.
func NewServer(engine Engine, manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Manager: manager,
		logger:  slog.Default(),
		origins: []string{"*"},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for the engine and manager.
func NewHandler(engine Engine, manager *session.Manager, opts ...Option) http.Handler {
	return NewServer(engine, manager, opts...).Handler()
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	// SSE is exempt from the request timeout.
	r.Get("/sessions/{id}/events", s.SubscribeEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(DefaultRequestTimeout))

		r.Get("/exercises", s.ListExercises)
		r.Get("/cases", s.ListCases)
		r.Get("/cases/{index}", s.GetCase)
		if s.progress != nil {
			r.Get("/progress/{user}", s.GetProgress)
			r.Get("/leaderboard", s.GetLeaderboard)
		}
		r.Get("/sessions", s.ListSessions)
		r.Post("/sessions", s.CreateSession)

		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
		r.Post("/sessions/{id}/select", s.SelectExercise)
		r.Post("/sessions/{id}/step", s.GoToStep)
		r.Post("/sessions/{id}/previous", s.PreviousStep)
		r.Post("/sessions/{id}/answer", s.SetAnswer)
		r.Post("/sessions/{id}/hint", s.ToggleHint)
		r.Post("/sessions/{id}/advance", s.Advance)
		r.Post("/sessions/{id}/reset", s.Reset)
	})
	return r
}

// ExerciseSummary is one entry of GET /exercises.
type ExerciseSummary struct {
	Index      int      `json:"index"`
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
	Steps      []string `json:"steps"`
}

// CreateSessionRequest is the body of POST /sessions. Both fields are optional.
type CreateSessionRequest struct {
	SessionID     string `json:"session_id,omitempty"`
	ExerciseIndex int    `json:"exercise_index"`
}

// IndexRequest carries the target index of select and step.
type IndexRequest struct {
	Index int `json:"index"`
}

// AnswerRequest is the body of POST /sessions/{id}/answer.
// Step defaults to the active step.
type AnswerRequest struct {
	Step *int   `json:"step,omitempty"`
	Text string `json:"text"`
}

// HintRequest is the body of POST /sessions/{id}/hint.
// Step defaults to the active step.
type HintRequest struct {
	Step *int `json:"step,omitempty"`
}

// ListExercises handles GET /exercises.
func (s *Server) ListExercises(w http.ResponseWriter, r *http.Request) {
	exercises := s.Engine.Exercises()
	resp := make([]ExerciseSummary, len(exercises))
	for i, ex := range exercises {
		steps := make([]string, len(ex.Steps))
		for j, st := range ex.Steps {
			steps[j] = st.Title
		}
		resp[i] = ExerciseSummary{
			Index:      i,
			ID:         ex.ID,
			Title:      ex.Title,
			Difficulty: ex.Difficulty,
			Category:   ex.Category,
			Steps:      steps,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListCases handles GET /cases.
func (s *Server) ListCases(w http.ResponseWriter, r *http.Request) {
	cases := s.Engine.Catalog().Cases
	if cases == nil {
		cases = []catalog.Case{}
	}
	s.writeJSON(w, http.StatusOK, cases)
}

// GetCase handles GET /cases/{index}.
func (s *Server) GetCase(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid case index", http.StatusBadRequest)
		return
	}
	cs, err := s.Engine.Catalog().Case(index)
	if err != nil {
		s.writeError(w, "GetCase", err)
		return
	}
	s.writeJSON(w, http.StatusOK, cs)
}

// GetProgress handles GET /progress/{user}. The optional recent query
// parameter bounds the listed completions.
func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	recent, ok := s.intQuery(w, r, "recent", DefaultRecentCompletions)
	if !ok {
		return
	}
	p, err := s.progress.Progress(r.Context(), chi.URLParam(r, "user"), recent)
	if err != nil {
		s.writeError(w, "GetProgress", err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// GetLeaderboard handles GET /leaderboard. The optional limit query parameter
// bounds the number of entries; zero means all.
func (s *Server) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.intQuery(w, r, "limit", 0)
	if !ok {
		return
	}
	board, err := s.progress.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeError(w, "GetLeaderboard", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"leaderboard": board})
}

func (s *Server) intQuery(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		http.Error(w, fmt.Sprintf("Invalid %s parameter", name), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions. An existing session with the same ID is replaced.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if !s.decodeOptional(w, r, "CreateSession", &body) {
		return
	}
	id := strings.TrimSpace(body.SessionID)
	if id == "" {
		id = s.newID()
	}

	sess, err := s.Engine.Start(r.Context(), id, body.ExerciseIndex)
	if err != nil {
		s.writeError(w, "CreateSession", err)
		return
	}
	if err := s.Manager.Save(r.Context(), id, sess); err != nil {
		s.writeError(w, "CreateSession", err)
		return
	}
	s.broadcast(nil, sess)
	s.writeView(w, r, http.StatusCreated, sess)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		err = s.Engine.Validate(sess)
	}
	if err != nil {
		s.writeError(w, "GetSession", err)
		return
	}
	s.writeView(w, r, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectExercise handles POST /sessions/{id}/select.
// The stored session is not validated first, so a session bound to an exercise
// that left the catalog can be rebound.
func (s *Server) SelectExercise(w http.ResponseWriter, r *http.Request) {
	var body IndexRequest
	if !s.decode(w, r, "SelectExercise", &body) {
		return
	}
	s.apply(w, r, "SelectExercise", func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.Engine.SelectExercise(ctx, cur, body.Index)
	})
}

// GoToStep handles POST /sessions/{id}/step.
func (s *Server) GoToStep(w http.ResponseWriter, r *http.Request) {
	var body IndexRequest
	if !s.decode(w, r, "GoToStep", &body) {
		return
	}
	s.transition(w, r, "GoToStep", func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.Engine.GoToStep(ctx, cur, body.Index)
	})
}

// PreviousStep handles POST /sessions/{id}/previous.
func (s *Server) PreviousStep(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "PreviousStep", s.Engine.PreviousStep)
}

// SetAnswer handles POST /sessions/{id}/answer.
func (s *Server) SetAnswer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if !s.decode(w, r, "SetAnswer", &body) {
		return
	}
	text, err := runner.SanitizeInput(body.Text)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, runner.ErrInputTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, fmt.Sprintf("Invalid answer: %v", err), status)
		s.logger.Warn("SetAnswer: input rejected", "err", err, "size", len(body.Text))
		return
	}
	s.transition(w, r, "SetAnswer", func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		step := cur.StepIndex
		if body.Step != nil {
			step = *body.Step
		}
		return s.Engine.SetAnswer(ctx, cur, step, text)
	})
}

// ToggleHint handles POST /sessions/{id}/hint.
func (s *Server) ToggleHint(w http.ResponseWriter, r *http.Request) {
	var body HintRequest
	if !s.decodeOptional(w, r, "ToggleHint", &body) {
		return
	}
	s.transition(w, r, "ToggleHint", func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		step := cur.StepIndex
		if body.Step != nil {
			step = *body.Step
		}
		return s.Engine.ToggleHint(ctx, cur, step)
	})
}

// Advance handles POST /sessions/{id}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "Advance", s.Engine.Advance)
}

// Reset handles POST /sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "Reset", s.Engine.Reset)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":       "polya-http",
		"version":   strings.TrimSpace(polya.Version),
		"exercises": len(s.Engine.Exercises()),
	})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The optional watch query parameter filters diffs by field group:
// step, answers, hints, status.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(f))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
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
		case "step":
			if diff.StepIndex != nil || diff.ExerciseIndex != nil {
				return true
			}
		case "answers":
			if len(diff.Answers) > 0 {
				return true
			}
		case "hints":
			if len(diff.Hints) > 0 {
				return true
			}
		case "status":
			if diff.Completed != nil || diff.Score != nil || diff.ScoreCleared {
				return true
			}
		}
	}
	return false
}

// transition validates the stored session against the catalog, then applies fn.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, op string, fn session.TransitionFunc) {
	s.apply(w, r, op, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		if err := s.Engine.Validate(cur); err != nil {
			return nil, err
		}
		return fn(ctx, cur)
	})
}

// apply runs fn against the stored session under the manager lock,
// broadcasts the diff and responds with the new view.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, op string, fn session.TransitionFunc) {
	id := chi.URLParam(r, "id")
	var before *domain.Session
	next, err := s.Manager.Update(r.Context(), id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		before = cur
		return fn(ctx, cur)
	})
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.broadcast(before, next)
	s.writeView(w, r, http.StatusOK, next)
}

func (s *Server) broadcast(before, after *domain.Session) {
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("diff encode failed", "err", err, "session_id", after.ID)
		return
	}
	s.Streams.Broadcast(after.ID, string(payload))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	return s.decodeBody(w, r, op, v, false)
}

// decodeOptional accepts an empty body and leaves v at its zero value.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	return s.decodeBody(w, r, op, v, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, op string, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, int64(runner.MaxInputSize())+4096)
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn(op+": invalid request body", "err", err)
		return false
	}
	return true
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, status int, sess *domain.Session) {
	view, err := s.Engine.Render(r.Context(), sess)
	if err != nil {
		s.writeError(w, "Render", err)
		return
	}
	s.writeJSON(w, status, view)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StatusFor maps engine and store errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSession):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err, "status", status)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}
