// Package sensors implements the four signal processors that turn raw device
// observations into categorized time buckets and point deltas.
//
// Each processor is a state machine behind the uniform Processor interface:
// the manager starts and stops it, snapshots and restores its accumulated
// state, and probes its lifecycle state directly. Processors never talk to
// the platform; they consume the detection and accelerometer collaborators
// injected through Deps and report results through an Emitter.
package sensors

import (
	"context"

	"github.com/lifesync/lifesync-core/internal/detection"
	"github.com/lifesync/lifesync-core/internal/github"
	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/scheduler"
	"github.com/lifesync/lifesync-core/internal/timer"
)

// Processor is the capability interface implemented by all sensor variants.
type Processor interface {
	// Start begins collecting. Fails fatally on missing permission or
	// hardware; no partial activation.
	Start(ctx context.Context) error

	// Stop finishes open accounting and releases timers and subscriptions.
	// After Stop returns, no further emission fires.
	Stop() error

	// Snapshot serializes the processor's accumulated state.
	Snapshot() (models.StateRecord, error)

	// Restore loads previously persisted state. Must be called before Start.
	Restore(rec models.StateRecord) error

	// Refresh re-runs the processor's update path once, used on
	// foreground-resume to re-sync after a gap in delivery.
	Refresh(ctx context.Context) error

	// State reports the processor's lifecycle state.
	State() models.ProcessorState
}

// Emitter receives a processor's display snapshots and point deltas.
type Emitter interface {
	EmitData(sensorID string, snapshot any)
	EmitPoints(sensorID string, delta int)
}

// CredentialSource provides stored contribution-API credentials.
type CredentialSource interface {
	GetGithubCredentials() (*models.GithubCredentials, error)
}

// ContributionSource fetches today's push activity for a user.
type ContributionSource interface {
	TodayContributions(ctx context.Context, username string) (github.Contributions, error)
}

// Deps carries the collaborators a processor may need. Each variant uses the
// subset relevant to its signal source.
type Deps struct {
	Detector  detection.Detector
	Stream    *detection.Stream
	Samples   detection.SampleSource
	Timers    *timer.Registry
	Scheduler *scheduler.Scheduler

	Credentials CredentialSource
	// Contributions builds a contribution-API client for a stored token.
	Contributions func(token string) ContributionSource
}

// New constructs the processor variant for the descriptor's type.
func New(desc models.SensorDescriptor, deps Deps, emitter Emitter) (Processor, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	switch desc.Type {
	case models.SensorTypeStepCount:
		return NewStepCounter(desc, deps, emitter), nil
	case models.SensorTypeAppSessions:
		return NewAppSessions(desc, deps, emitter), nil
	case models.SensorTypePhoneUsage:
		return NewPhoneUsage(desc, deps, emitter), nil
	case models.SensorTypeGithubContributions:
		return NewGithubContributions(desc, deps, emitter), nil
	default:
		return nil, models.ErrInvalidSensorType
	}
}

// checkDetection verifies that real, granted usage detection is available.
// Scoring sensors refuse to start on simulated detection.
func checkDetection(ctx context.Context, d detection.Detector) error {
	status, err := d.CheckPermission(ctx)
	if err != nil {
		return err
	}
	if !status.Granted {
		return models.ErrPermissionDenied
	}
	if status.Simulation {
		return models.ErrSimulatedDetection
	}
	return nil
}
