// Package scoreapi is the client for the remote game backend holding player
// accounts and synchronized category scores.
package scoreapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/util"
)

// DefaultBaseURL is the production backend endpoint.
const DefaultBaseURL = "https://lifesync-backend.onrender.com"

// ErrLoginFailed indicates the backend rejected the credentials.
var ErrLoginFailed = fmt.Errorf("login failed")

// Player is the authenticated account returned by Login.
type Player struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// Client talks to the game backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Opts holds configuration for a Client.
type Opts struct {
	BaseURL string
}

// Option configures a Client.
type Option func(*Opts)

// WithBaseURL overrides the backend endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// NewClient creates a backend client.
func NewClient(options ...Option) *Client {
	opts := Opts{BaseURL: DefaultBaseURL}
	for _, opt := range options {
		opt(&opts)
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: util.RequestTimeout()},
	}
}

// Login authenticates a player and returns their account. The backend keys
// the lookup on both username and password in the route.
func (c *Client) Login(ctx context.Context, username, password string) (*Player, error) {
	url := fmt.Sprintf("%s/user-routes/player/%s/%s", c.baseURL, username, password)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var player Player
	if err := json.Unmarshal(body, &player); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if player.UserID == 0 {
		return nil, ErrLoginFailed
	}
	slog.Info("Scoreapi login succeeded", "userID", player.UserID)
	return &player, nil
}

// GetPoints fetches the player's synchronized per-category scores.
func (c *Client) GetPoints(ctx context.Context, userID int64) (models.CategoryPoints, error) {
	url := fmt.Sprintf("%s/user-routes/points/%d", c.baseURL, userID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw map[string]int
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode points response: %w", err)
	}

	points := make(models.CategoryPoints, len(models.Categories))
	for _, cat := range models.Categories {
		points[cat] = raw[string(cat)]
	}
	return points, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
