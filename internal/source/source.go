// Package source provides telemetry producers: live simulator feeds and
// recorded replay files.
package source

import (
	"errors"

	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// ErrUnavailable signals that the producer has nothing for this tick.
// Callers skip the tick; it is not a failure.
var ErrUnavailable = errors.New("telemetry source unavailable")

// Producer is the contract between a simulator adapter and the pipeline.
// Telemetry returns one snapshot per call, or ErrUnavailable when no new
// data has arrived. SessionInfo returns the current session identity, or
// ErrUnavailable before the first session is known.
type Producer interface {
	SessionInfo() (telemetry.SessionInfo, error)
	Telemetry() (telemetry.Snapshot, error)
	Close() error
}
