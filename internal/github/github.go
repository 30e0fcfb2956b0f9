// Package github provides a minimal client for the GitHub events API, used
// to count the player's commits pushed today.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lifesync/lifesync-core/internal/util"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Event is a single entry from the user events feed. Only the fields needed
// for contribution counting are decoded.
type Event struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Commits []struct {
			SHA string `json:"sha"`
		} `json:"commits"`
	} `json:"payload"`
}

// Contributions summarizes today's push activity for a user.
type Contributions struct {
	Commits  int
	Repos    int
	LastPush time.Time
}

// Client talks to the GitHub REST API with a personal access token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Opts holds configuration for a Client.
type Opts struct {
	BaseURL string
	Token   string
}

// Option configures a Client.
type Option func(*Opts)

// WithBaseURL overrides the API endpoint, e.g. for a test server.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithToken sets the personal access token sent as a Bearer credential.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// NewClient creates a GitHub API client.
func NewClient(options ...Option) *Client {
	opts := Opts{BaseURL: DefaultBaseURL}
	for _, opt := range options {
		opt(&opts)
	}
	return &Client{
		baseURL:    opts.BaseURL,
		token:      opts.Token,
		httpClient: &http.Client{Timeout: util.RequestTimeout()},
	}
}

// UserEvents fetches the most recent public events for a user.
func (c *Client) UserEvents(ctx context.Context, username string) ([]Event, error) {
	url := fmt.Sprintf("%s/users/%s/events?per_page=100", c.baseURL, username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build events request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "lifesync-core")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("events request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("events request returned status %d: %s", resp.StatusCode, string(body))
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}
	slog.Debug("Github client fetched events", "username", username, "count", len(events))
	return events, nil
}

// TodayContributions fetches the user's events and reduces them to today's
// push activity. A day starts at local midnight; each push contributes the
// number of commits it carried.
func (c *Client) TodayContributions(ctx context.Context, username string) (Contributions, error) {
	events, err := c.UserEvents(ctx, username)
	if err != nil {
		return Contributions{}, err
	}
	return reduceToday(events, time.Now()), nil
}

func reduceToday(events []Event, now time.Time) Contributions {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var c Contributions
	repos := make(map[string]struct{})
	for _, ev := range events {
		if ev.Type != "PushEvent" {
			continue
		}
		created := ev.CreatedAt.In(now.Location())
		if created.Before(midnight) {
			continue
		}
		c.Commits += len(ev.Payload.Commits)
		repos[ev.Repo.Name] = struct{}{}
		if created.After(c.LastPush) {
			c.LastPush = created
		}
	}
	c.Repos = len(repos)
	return c
}
