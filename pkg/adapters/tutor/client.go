// Package tutor is a client for the external tutor and recommendation service.
// The service is an optional collaborator: failures never touch session state,
// and callers that want a reply regardless use Reply, which falls back to
// FallbackMessage.
package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/pkg/catalog"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultUserID  = "default_user"

	// FallbackMessage is shown in place of a chat reply when the service fails.
	FallbackMessage = "抱歉，我暂时无法回复。请检查网络连接后重试。"
)

// ErrUnavailable is returned when the service cannot be reached or answers with a server error.
var ErrUnavailable = errors.New("tutor service unavailable")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tutor service returned status %d: %s", e.StatusCode, e.Message)
}

// Is reports ErrUnavailable for 5xx responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnavailable && e.StatusCode >= http.StatusInternalServerError
}

// ChatRequest is the body of POST /api/tutor/chat. CurrentStep is 1-based.
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	ProblemContext string `json:"problem_context,omitempty"`
	CurrentStep    int    `json:"current_step"`
}

// ChatResponse is the tutor reply.
type ChatResponse struct {
	Response    string         `json:"response"`
	Timestamp   string         `json:"timestamp,omitempty"`
	CurrentStep int            `json:"current_step,omitempty"`
	StepInfo    *catalog.Stage `json:"step_info,omitempty"`
}

// HintRequest is the body of POST /api/tutor/hint. CurrentStep is 1-based.
type HintRequest struct {
	CurrentStep int    `json:"current_step"`
	ProblemType string `json:"problem_type"`
}

// HintResponse carries generic guidance for one stage of the method.
type HintResponse struct {
	StepName        string   `json:"step_name"`
	StepDescription string   `json:"step_description"`
	Hints           []string `json:"hints"`
	Strategies      []string `json:"strategies"`
	CommonMistakes  []string `json:"common_mistakes"`
}

// UserProfile is the learner model computed by the service.
type UserProfile struct {
	SkillLevels           map[string]int `json:"skill_levels"`
	PreferredTopics       []string       `json:"preferred_topics"`
	PreferredDifficulty   int            `json:"preferred_difficulty"`
	PreferredProblemTypes []string       `json:"preferred_problem_types"`
	LearningPace          string         `json:"learning_pace"`
	WeakAreas             []string       `json:"weak_areas"`
	StrongAreas           []string       `json:"strong_areas"`
	TotalTimeSpent        int            `json:"total_time_spent"`
	CompletionRate        float64        `json:"completion_rate"`
}

// Recommendation is one content-based suggestion.
type Recommendation struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	ContentType   string   `json:"content_type"`
	Difficulty    int      `json:"difficulty"`
	EstimatedTime int      `json:"estimated_time"`
	Topics        []string `json:"topics"`
	Score         float64  `json:"score"`
	Reasons       []string `json:"reasons"`
}

// Recommendations is the response of GET /api/recommend/personalized.
type Recommendations struct {
	UserProfile                  UserProfile      `json:"user_profile"`
	ContentBasedRecommendations []Recommendation `json:"content_based_recommendations"`
}

// PathItem is one entry of a learning path phase.
type PathItem struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// PathPhase groups path items.
type PathPhase struct {
	Phase string     `json:"phase"`
	Items []PathItem `json:"items"`
}

// LearningPath is the response of GET /api/recommend/learning-path.
type LearningPath struct {
	Phases             []PathPhase `json:"learning_path"`
	EstimatedTotalTime int         `json:"estimated_total_time,omitempty"`
	UserLevel          int         `json:"user_level,omitempty"`
}

// Client talks to the tutor service.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserID sets the learner identity sent with every request.
func WithUserID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.userID = id
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid tutor URL %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimSuffix(u.String(), "/"),
		userID:  DefaultUserID,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UserID returns the learner identity of the client.
func (c *Client) UserID() string {
	return c.userID
}

// Chat sends a message to the tutor. An empty UserID defaults to the client's.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message must not be empty")
	}
	if req.UserID == "" {
		req.UserID = c.userID
	}
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/tutor/chat", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reply returns the tutor's answer to message, or FallbackMessage on any failure.
func (c *Client) Reply(ctx context.Context, message, problemContext string, step int) string {
	resp, err := c.Chat(ctx, ChatRequest{Message: message, ProblemContext: problemContext, CurrentStep: step})
	if err != nil || strings.TrimSpace(resp.Response) == "" {
		c.logger.Warn("tutor chat failed, using fallback", "err", err, "step", step)
		return FallbackMessage
	}
	return resp.Response
}

// Hint fetches generic guidance for a stage. step is 1-based.
func (c *Client) Hint(ctx context.Context, step int, problemType string) (*HintResponse, error) {
	if problemType == "" {
		problemType = "general"
	}
	var resp HintResponse
	if err := c.do(ctx, http.MethodPost, "/api/tutor/hint", nil, HintRequest{CurrentStep: step, ProblemType: problemType}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Personalized fetches the learner profile and content recommendations.
func (c *Client) Personalized(ctx context.Context) (*Recommendations, error) {
	var resp Recommendations
	if err := c.do(ctx, http.MethodGet, "/api/recommend/personalized", c.userQuery(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LearningPath fetches the recommended learning path.
func (c *Client) LearningPath(ctx context.Context) (*LearningPath, error) {
	var resp LearningPath
	if err := c.do(ctx, http.MethodGet, "/api/recommend/learning-path", c.userQuery(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) userQuery() url.Values {
	return url.Values{"user_id": {c.userID}}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("tutor request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} bodies and falls back to the raw text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
