package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func eventsJSON(now time.Time) string {
	today := now.Add(-1 * time.Hour).UTC().Format(time.RFC3339)
	yesterday := now.Add(-30 * time.Hour).UTC().Format(time.RFC3339)
	return fmt.Sprintf(`[
		{"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/game"},"payload":{"commits":[{"sha":"a"},{"sha":"b"}]}},
		{"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/site"},"payload":{"commits":[{"sha":"c"}]}},
		{"type":"WatchEvent","created_at":%q,"repo":{"name":"octocat/other"},"payload":{}},
		{"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/old"},"payload":{"commits":[{"sha":"d"}]}}
	]`, today, today, today, yesterday)
}

func TestUserEventsSendsAuthHeaders(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithToken("tok123"))
	if _, err := c.UserEvents(context.Background(), "octocat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestUserEventsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithToken("bad"))
	if _, err := c.UserEvents(context.Background(), "octocat"); err == nil {
		t.Error("expected error for 401 response")
	}
}

func TestTodayContributionsCountsPushesSinceMidnight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(eventsJSON(time.Now())))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	got, err := c.TodayContributions(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Commits != 3 {
		t.Errorf("Commits = %d, want 3", got.Commits)
	}
	if got.Repos != 2 {
		t.Errorf("Repos = %d, want 2", got.Repos)
	}
	if got.LastPush.IsZero() {
		t.Error("LastPush not set")
	}
}

func TestReduceTodayExcludesYesterday(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.Local)
	events := []Event{
		{Type: "PushEvent", CreatedAt: now.Add(-10 * time.Minute)},
		{Type: "PushEvent", CreatedAt: now.Add(-2 * time.Hour)},
	}
	events[0].Repo.Name = "a/b"
	events[0].Payload.Commits = make([]struct {
		SHA string `json:"sha"`
	}, 2)
	events[1].Repo.Name = "a/c"
	events[1].Payload.Commits = make([]struct {
		SHA string `json:"sha"`
	}, 5)

	got := reduceToday(events, now)
	if got.Commits != 2 {
		t.Errorf("Commits = %d, want 2 (yesterday's push excluded)", got.Commits)
	}
	if got.Repos != 1 {
		t.Errorf("Repos = %d, want 1", got.Repos)
	}
}
