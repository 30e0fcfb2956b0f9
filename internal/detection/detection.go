// Package detection defines the boundary to the platform-level usage
// detection service.
//
// The engine never talks to the OS directly: it consumes a foreground-app
// identifier stream and a permission flag through the Detector interface,
// and accelerometer readings through the SampleSource interface. The Relay
// implements both, fed over the local ingest API by the platform shim. The
// Stream merges push delivery with fallback polling into one deduplicated
// event sequence for sensor consumption.
package detection

import (
	"context"

	"github.com/lifesync/lifesync-core/internal/models"
)

// PermissionStatus reports whether real usage detection is available.
// Simulation means the platform can only fabricate data; scoring sensors
// must refuse to start in that mode.
type PermissionStatus struct {
	Granted    bool `json:"granted"`
	Simulation bool `json:"simulation"`
}

// Detector exposes the foreground-app detection collaborator. Delivery is
// best-effort: consumers must tolerate zero push events and fall back to
// polling CurrentApp.
type Detector interface {
	// CheckPermission reports whether usage detection is granted and real.
	CheckPermission(ctx context.Context) (PermissionStatus, error)

	// CurrentApp returns the current foreground package identifier, or ""
	// when no app is foreground.
	CurrentApp(ctx context.Context) (string, error)

	// Subscribe registers a callback for foreground-change notifications and
	// returns an unsubscribe function. After unsubscribe returns, the
	// callback will not be invoked again.
	Subscribe(fn func(pkg string)) (unsubscribe func())
}

// SampleSource exposes the accelerometer collaborator.
type SampleSource interface {
	// Available reports whether the platform has attached an accelerometer feed.
	Available() bool

	// SubscribeSamples registers a callback for accelerometer readings and
	// returns an unsubscribe function.
	SubscribeSamples(fn func(s models.AccelSample)) (unsubscribe func())
}
