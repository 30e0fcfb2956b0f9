package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/lifesync/lifesync-core/internal/api"
	"github.com/lifesync/lifesync-core/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for LifeSync state data
	DefaultStateDir = "/var/lib/lifesync"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "lifesync.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping LifeSync Core")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "postgres_set", *flags.postgresDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(apiOpts...); err != nil {
		slog.Error("LifeSync Core failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("LifeSync Core exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir        string
	SQLiteDSN       string
	PostgresDSN     string
	APIAddr         string
	GithubBaseURL   string
	ScoreAPIBaseURL string
}

// Flags holds command line flag values
type Flags struct {
	stateDir        *string
	sqliteDSN       *string
	postgresDSN     *string
	apiAddr         *string
	githubBaseURL   *string
	scoreAPIBaseURL *string
}

// initializeLogger sets up structured logging. Debug level by default,
// disable with LIFESYNC_DEBUG=false.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LIFESYNC_DEBUG", true) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:        os.Getenv("LIFESYNC_STATE_DIR"),
		SQLiteDSN:       os.Getenv("LIFESYNC_SQLITE_DSN"),
		PostgresDSN:     os.Getenv("DATABASE_URL"),
		APIAddr:         os.Getenv("API_ADDR"),
		GithubBaseURL:   os.Getenv("GITHUB_API_BASE_URL"),
		ScoreAPIBaseURL: os.Getenv("SCORE_API_BASE_URL"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No LIFESYNC_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	return config
}

// parseCommandLineFlags parses flags with environment values as defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:        flag.String("state-dir", config.StateDir, "Directory for state data (SQLite database)"),
		sqliteDSN:       flag.String("sqlite-dsn", config.SQLiteDSN, "SQLite DSN for the state store"),
		postgresDSN:     flag.String("postgres-dsn", config.PostgresDSN, "Postgres DSN for the state store (takes precedence)"),
		apiAddr:         flag.String("addr", config.APIAddr, "API server listen address"),
		githubBaseURL:   flag.String("github-base-url", config.GithubBaseURL, "Contribution API base URL override"),
		scoreAPIBaseURL: flag.String("score-base-url", config.ScoreAPIBaseURL, "Scoring backend base URL override"),
	}
	flag.Parse()
	return flags
}

// buildAPIOptions assembles the server options from resolved flags
func buildAPIOptions(flags Flags) []api.Option {
	var opts []api.Option

	switch {
	case *flags.postgresDSN != "":
		opts = append(opts, api.WithPostgresDSN(*flags.postgresDSN))
	case *flags.sqliteDSN != "":
		opts = append(opts, api.WithSQLiteDSN(*flags.sqliteDSN))
	default:
		// Fall back to a SQLite database under the state directory.
		opts = append(opts, api.WithSQLiteDSN(filepath.Join(*flags.stateDir, DefaultDBFileName)))
	}

	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.githubBaseURL != "" {
		opts = append(opts, api.WithGithubBaseURL(*flags.githubBaseURL))
	}
	if *flags.scoreAPIBaseURL != "" {
		opts = append(opts, api.WithScoreAPIBaseURL(*flags.scoreAPIBaseURL))
	}
	return opts
}
