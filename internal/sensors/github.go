package sensors

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/scheduler"
)

const (
	// githubPollSchedule keeps the contribution poll rate-limit friendly.
	githubPollSchedule = "*/5 * * * *"
	pointsPerCommit    = 2
)

// GithubContributions polls the contribution API for today's push activity
// and awards points for commits above the already-processed watermark. The
// watermark never decrements, so a day rollover or shrinking feed can never
// score negatively or re-score old commits.
//
// Without stored credentials, or on any request error, the sensor emits a
// clearly flagged simulated snapshot and zero points.
type GithubContributions struct {
	desc          models.SensorDescriptor
	sched         *scheduler.Scheduler
	credentials   CredentialSource
	contributions func(token string) ContributionSource
	emitter       Emitter

	mu      sync.Mutex
	state   models.ProcessorState
	jobID   scheduler.JobID
	haveJob bool

	commits          int
	repos            int
	lastPush         time.Time
	commitsProcessed int
	simulated        bool
}

// NewGithubContributions creates a contribution tracker.
func NewGithubContributions(desc models.SensorDescriptor, deps Deps, emitter Emitter) *GithubContributions {
	return &GithubContributions{
		desc:          desc,
		sched:         deps.Scheduler,
		credentials:   deps.Credentials,
		contributions: deps.Contributions,
		emitter:       emitter,
		state:         models.ProcessorInactive,
	}
}

// Start schedules the recurring poll and runs one immediately. Missing
// credentials are not fatal; the sensor runs in simulation mode instead.
func (g *GithubContributions) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.state == models.ProcessorActive {
		g.mu.Unlock()
		return models.ErrAlreadyActive
	}
	g.state = models.ProcessorStarting
	g.mu.Unlock()

	jobID, err := g.sched.AddJob(githubPollSchedule, g.pollJob)
	if err != nil {
		g.mu.Lock()
		g.state = models.ProcessorInactive
		g.mu.Unlock()
		return err
	}

	g.mu.Lock()
	g.jobID = jobID
	g.haveJob = true
	g.state = models.ProcessorActive
	g.mu.Unlock()

	go g.pollJob()
	slog.Info("GithubContributions started", "sensorID", g.desc.ID)
	return nil
}

// Stop removes the scheduled poll.
func (g *GithubContributions) Stop() error {
	g.mu.Lock()
	if g.state != models.ProcessorActive {
		g.mu.Unlock()
		return nil
	}
	g.state = models.ProcessorStopping
	haveJob := g.haveJob
	jobID := g.jobID
	g.haveJob = false
	g.mu.Unlock()

	if haveJob {
		g.sched.RemoveJob(jobID)
	}

	g.mu.Lock()
	g.state = models.ProcessorInactive
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.emitter.EmitData(g.desc.ID, snap)
	slog.Info("GithubContributions stopped", "sensorID", g.desc.ID, "commitsProcessed", snap.CommitsProcessed)
	return nil
}

// Snapshot implements Processor.
func (g *GithubContributions) Snapshot() (models.StateRecord, error) {
	g.mu.Lock()
	snap := g.snapshotLocked()
	g.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return models.StateRecord{}, err
	}
	return models.StateRecord{SensorID: g.desc.ID, Type: g.desc.Type, UpdatedAt: time.Now(), Data: data}, nil
}

// Restore implements Processor. The watermark carries over so a restart
// never re-scores commits already converted to points.
func (g *GithubContributions) Restore(rec models.StateRecord) error {
	if rec.Type != g.desc.Type {
		return models.ErrStateRecordTypeMismatch
	}
	var snap models.GithubSnapshot
	if err := json.Unmarshal(rec.Data, &snap); err != nil {
		return err
	}

	g.mu.Lock()
	g.commits = snap.Commits
	g.repos = snap.Repos
	g.lastPush = snap.LastPush
	g.commitsProcessed = snap.CommitsProcessed
	g.mu.Unlock()
	slog.Debug("GithubContributions restored", "sensorID", g.desc.ID, "commitsProcessed", snap.CommitsProcessed)
	return nil
}

// Refresh runs the poll once.
func (g *GithubContributions) Refresh(ctx context.Context) error {
	return g.poll(ctx)
}

// State implements Processor.
func (g *GithubContributions) State() models.ProcessorState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *GithubContributions) pollJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := g.poll(ctx); err != nil {
		slog.Error("GithubContributions poll failed", "sensorID", g.desc.ID, "error", err)
	}
}

// poll fetches today's contributions and scores new commits. Configuration
// and request failures degrade to a simulated snapshot with zero points.
func (g *GithubContributions) poll(ctx context.Context) error {
	creds, err := g.credentials.GetGithubCredentials()
	if err != nil {
		slog.Error("GithubContributions failed to load credentials", "sensorID", g.desc.ID, "error", err)
		g.emitSimulated()
		return nil
	}
	if !creds.Configured() {
		slog.Debug("GithubContributions credentials not configured, simulating", "sensorID", g.desc.ID)
		g.emitSimulated()
		return nil
	}

	contrib, err := g.contributions(creds.Token).TodayContributions(ctx, creds.Username)
	if err != nil {
		slog.Error("GithubContributions fetch failed", "sensorID", g.desc.ID, "error", err)
		g.emitSimulated()
		return nil
	}

	g.mu.Lock()
	// A poll can still be in flight when Stop resolves; it must not score.
	if g.state != models.ProcessorActive {
		g.mu.Unlock()
		return nil
	}
	g.commits = contrib.Commits
	g.repos = contrib.Repos
	g.lastPush = contrib.LastPush
	g.simulated = false

	points := 0
	if newCommits := contrib.Commits - g.commitsProcessed; newCommits > 0 {
		points = newCommits * pointsPerCommit
		g.commitsProcessed = contrib.Commits
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()

	if points > 0 {
		slog.Info("GithubContributions points earned", "sensorID", g.desc.ID, "commits", contrib.Commits, "points", points)
		g.emitter.EmitPoints(g.desc.ID, points)
	}
	g.emitter.EmitData(g.desc.ID, snap)
	return nil
}

// emitSimulated publishes plausible display-only values. Never emits points.
func (g *GithubContributions) emitSimulated() {
	g.mu.Lock()
	if g.state != models.ProcessorActive {
		g.mu.Unlock()
		return
	}
	g.simulated = true
	g.commits = rand.Intn(8)
	g.repos = 0
	if g.commits > 0 {
		g.repos = 1 + rand.Intn(2)
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.emitter.EmitData(g.desc.ID, snap)
}

func (g *GithubContributions) snapshotLocked() models.GithubSnapshot {
	return models.GithubSnapshot{
		Commits:          g.commits,
		Repos:            g.repos,
		LastPush:         g.lastPush,
		CommitsProcessed: g.commitsProcessed,
		Simulated:        g.simulated,
	}
}
