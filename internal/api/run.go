package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lifesync/lifesync-core/internal/detection"
	"github.com/lifesync/lifesync-core/internal/github"
	"github.com/lifesync/lifesync-core/internal/manager"
	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/scheduler"
	"github.com/lifesync/lifesync-core/internal/scoreapi"
	"github.com/lifesync/lifesync-core/internal/sensors"
	"github.com/lifesync/lifesync-core/internal/store"
	"github.com/lifesync/lifesync-core/internal/timer"
)

// DefaultAddr is the default listen address for the local control plane.
const DefaultAddr = ":8080"

// Opts holds configuration for the API server and its collaborators.
type Opts struct {
	Addr            string
	SQLiteDSN       string
	PostgresDSN     string
	GithubBaseURL   string
	ScoreAPIBaseURL string
}

// Option configures the server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithSQLiteDSN selects the SQLite state store backend.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.SQLiteDSN = dsn }
}

// WithPostgresDSN selects the Postgres state store backend. Takes precedence
// over SQLite when both are set.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.PostgresDSN = dsn }
}

// WithGithubBaseURL overrides the contribution API endpoint.
func WithGithubBaseURL(url string) Option {
	return func(o *Opts) { o.GithubBaseURL = url }
}

// WithScoreAPIBaseURL overrides the remote scoring backend endpoint.
func WithScoreAPIBaseURL(url string) Option {
	return func(o *Opts) { o.ScoreAPIBaseURL = url }
}

// Run wires the full engine together and serves the local HTTP surface. It
// blocks until the server stops.
func Run(options ...Option) error {
	opts := Opts{Addr: DefaultAddr}
	for _, opt := range options {
		opt(&opts)
	}

	st, err := openStore(opts)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer st.Close()

	relay := detection.NewRelay()
	timers := timer.NewRegistry()
	defer timers.Stop()
	stream := detection.NewStream(relay, timers)
	sched := scheduler.NewScheduler()
	defer sched.Stop()

	deps := sensors.Deps{
		Detector:    relay,
		Stream:      stream,
		Samples:     relay,
		Timers:      timers,
		Scheduler:   sched,
		Credentials: st,
		Contributions: func(token string) sensors.ContributionSource {
			clientOpts := []github.Option{github.WithToken(token)}
			if opts.GithubBaseURL != "" {
				clientOpts = append(clientOpts, github.WithBaseURL(opts.GithubBaseURL))
			}
			return github.NewClient(clientOpts...)
		},
	}

	mgr := manager.NewManager(st, deps, relay)
	defer mgr.Close()

	for _, desc := range models.SensorCatalog {
		if err := mgr.Register(desc, manager.Callbacks{}); err != nil {
			return fmt.Errorf("failed to register sensor %s: %w", desc.ID, err)
		}
	}
	mgr.RestoreActiveSensors(context.Background())

	var scoreOpts []scoreapi.Option
	if opts.ScoreAPIBaseURL != "" {
		scoreOpts = append(scoreOpts, scoreapi.WithBaseURL(opts.ScoreAPIBaseURL))
	}
	score := scoreapi.NewClient(scoreOpts...)

	server := NewServer(mgr, st, relay, score)
	slog.Info("Server starting", "addr", opts.Addr)
	return http.ListenAndServe(opts.Addr, server.Routes())
}

// openStore selects the storage backend from the configured DSNs, preferring
// Postgres, then SQLite, then in-memory.
func openStore(opts Opts) (*store.Store, error) {
	switch {
	case opts.PostgresDSN != "":
		slog.Info("Server using Postgres state store")
		return store.NewPostgresStore(store.WithDSN(opts.PostgresDSN))
	case opts.SQLiteDSN != "":
		slog.Info("Server using SQLite state store", "dsn", opts.SQLiteDSN)
		return store.NewSQLiteStore(store.WithDSN(opts.SQLiteDSN))
	default:
		slog.Info("Server using in-memory state store")
		return store.NewInMemoryStore(), nil
	}
}
