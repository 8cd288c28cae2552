// Package restapi implements the service.Service interface over the SpaceQuest REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"spacequest/internal/config"
	"spacequest/internal/service"
)

const (
	// APITimeout is the default timeout for API calls.
	APITimeout = 10 * time.Second

	// RequestIDHeader carries a per-request correlation ID.
	RequestIDHeader = "X-Request-ID"
)

// Client implements service.Service over HTTP.
type Client struct {
	baseURL        string
	http           *http.Client
	timeout        time.Duration
	logger         *zap.Logger
	onUnauthorized func()
	unauthOnce     sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUnauthorizedHandler registers fn to run on the first 401 response.
// The CLI uses it to drop the stored session.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client from config, attaching the stored bearer token to
// every request. Requires token.json to exist.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	token, err := cfg.LoadToken()
	if err != nil {
		return nil, err
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}

	// The oauth2 transport sets the Authorization header on each request.
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)
	return NewWithHTTPClient(cfg.APIURL, httpClient, opts...)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("api url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		timeout: APITimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Profile returns the signed-in player.
func (c *Client) Profile(ctx context.Context) (service.Profile, error) {
	var p service.Profile
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &p); err != nil {
		return service.Profile{}, err
	}
	return p, nil
}

// ListProjects returns all expeditions in API order.
func (c *Client) ListProjects(ctx context.Context) ([]service.ProjectSummary, error) {
	var out []service.ProjectSummary
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject returns a full board.
func (c *Client) GetProject(ctx context.Context, id string) (service.Project, error) {
	var p service.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &p); err != nil {
		return service.Project{}, err
	}
	return p, nil
}

// ResolveProject finds a project by ID or name (case-insensitive, trimmed).
func (c *Client) ResolveProject(ctx context.Context, ref string) (service.ProjectSummary, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return service.ProjectSummary{}, err
	}
	return MatchProject(projects, ref)
}

// MatchProject picks the project whose ID equals ref, or failing that the
// single project whose name matches ref case-insensitively.
func MatchProject(projects []service.ProjectSummary, ref string) (service.ProjectSummary, error) {
	ref = strings.TrimSpace(ref)
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
	}

	refLower := strings.ToLower(ref)
	var matches []service.ProjectSummary
	for _, p := range projects {
		if strings.ToLower(strings.TrimSpace(p.Name)) == refLower {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return service.ProjectSummary{}, fmt.Errorf("project %w: %s", service.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return service.ProjectSummary{}, fmt.Errorf("%w project name: %s", service.ErrAmbiguous, ref)
	}
}

// AddMember adds a player to an expedition.
func (c *Client) AddMember(ctx context.Context, projectID, username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username required", service.ErrValidation)
	}
	body := map[string]string{"username": strings.TrimSpace(username)}
	return c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/members", body, nil)
}

// ListTasks returns the player's personal objectives.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var out []service.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	if err := task.Validate(); err != nil {
		return service.Task{}, err
	}
	task.Title = strings.TrimSpace(task.Title)

	var out service.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", task, &out); err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// UpdateTask edits task fields.
func (c *Client) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	if err := update.Validate(); err != nil {
		return service.Task{}, err
	}
	var out service.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), update, &out); err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// MoveTask sets a task's board column.
func (c *Client) MoveTask(ctx context.Context, id, newStatus string) error {
	if strings.TrimSpace(newStatus) == "" {
		return fmt.Errorf("%w: status required", service.ErrValidation)
	}
	body := map[string]string{"newStatus": newStatus}
	return c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id)+"/move", body, nil)
}

// CompleteTask marks a task done.
func (c *Client) CompleteTask(ctx context.Context, id string) (service.CompleteResult, error) {
	var out service.CompleteResult
	if err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id)+"/complete", nil, &out); err != nil {
		return service.CompleteResult{}, err
	}
	if out.TaskID == "" {
		out.TaskID = id
	}
	return out, nil
}

// Leaderboard returns ranked players.
func (c *Client) Leaderboard(ctx context.Context) ([]service.LeaderboardEntry, error) {
	var out []service.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, "/leaderboard", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShopItems returns the item catalogue.
func (c *Client) ShopItems(ctx context.Context) ([]service.ShopItem, error) {
	var out []service.ShopItem
	if err := c.do(ctx, http.MethodGet, "/shop/items", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Purchase buys an item.
func (c *Client) Purchase(ctx context.Context, itemID string) (service.PurchaseResult, error) {
	var out service.PurchaseResult
	if err := c.do(ctx, http.MethodPost, "/shop/items/"+url.PathEscape(itemID)+"/purchase", nil, &out); err != nil {
		return service.PurchaseResult{}, err
	}
	if out.ItemID == "" {
		out.ItemID = itemID
	}
	return out, nil
}

// ClaimReward claims a pending reward.
func (c *Client) ClaimReward(ctx context.Context, rewardID string) (service.RewardResult, error) {
	var out service.RewardResult
	if err := c.do(ctx, http.MethodPost, "/rewards/"+url.PathEscape(rewardID)+"/claim", nil, &out); err != nil {
		return service.RewardResult{}, err
	}
	if out.RewardID == "" {
		out.RewardID = rewardID
	}
	return out, nil
}

// do sends one JSON request and decodes the response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return c.wrapError(err)
	}
	defer res.Body.Close()

	c.logger.Debug("request", zap.String("method", method), zap.String("path", path),
		zap.String("request_id", reqID), zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)))

	if err := googleapi.CheckResponse(res); err != nil {
		return c.wrapError(err)
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wrapError maps transport and HTTP errors onto service errors.
func (c *Client) wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	msg := serverMessage(apiErr)
	switch apiErr.Code {
	case http.StatusUnauthorized:
		c.unauthorized()
		return fmt.Errorf("%w: session expired (run: sq login)", service.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusForbidden, http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", service.ErrRejected, msg)
	default:
		return fmt.Errorf("server error %d: %s", apiErr.Code, msg)
	}
}

func (c *Client) unauthorized() {
	if c.onUnauthorized == nil {
		return
	}
	c.unauthOnce.Do(c.onUnauthorized)
}

// serverMessage extracts the most useful message from an error response.
// The API answers {"message": "..."}; googleapi only parses {"error": {...}}.
func serverMessage(e *googleapi.Error) string {
	if e.Message != "" {
		return e.Message
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if b := strings.TrimSpace(e.Body); b != "" && len(b) < 200 {
		return b
	}
	return strings.ToLower(http.StatusText(e.Code))
}
