package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/monitoring"
	"github.com/apexloop-data/setup.coach/internal/source"
	"github.com/apexloop-data/setup.coach/internal/timeutil"
)

// Collector polls a telemetry producer and feeds the runner. It re-checks
// the session identity periodically so a sim that started a new session
// without restarting the feed still triggers a session transition.
type Collector struct {
	producer source.Producer
	runner   *Runner
	clock    timeutil.Clock

	refreshInterval time.Duration
	recheckInterval time.Duration

	lastSessionCheck time.Time
}

func NewCollector(producer source.Producer, runner *Runner, clock timeutil.Clock, cfg *config.Config) *Collector {
	return &Collector{
		producer:        producer,
		runner:          runner,
		clock:           clock,
		refreshInterval: time.Duration(cfg.GetSourceRefreshIntervalMS()) * time.Millisecond,
		recheckInterval: time.Duration(cfg.GetSessionRecheckIntervalMS()) * time.Millisecond,
	}
}

// Run polls until the context is cancelled or the producer reports end of
// stream. Source unavailability is a skipped tick, never an error.
func (c *Collector) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if done, err := c.tick(); done {
				return err
			}
		}
	}
}

// tick performs one poll. It returns done=true when the stream ended.
func (c *Collector) tick() (bool, error) {
	if c.runner.State() == Idle || c.clock.Since(c.lastSessionCheck) >= c.recheckInterval {
		c.lastSessionCheck = c.clock.Now()
		info, err := c.producer.SessionInfo()
		switch {
		case err == nil:
			c.runner.OnSession(info)
		case errors.Is(err, source.ErrUnavailable):
			// No session yet; keep waiting.
		default:
			monitoring.Logf("session query failed: %v", err)
		}
	}
	if c.runner.State() == Idle {
		return false, nil
	}

	snap, err := c.producer.Telemetry()
	switch {
	case err == nil:
		c.runner.Process(snap)
	case errors.Is(err, source.ErrUnavailable):
		// Tick skip. Re-check the session next tick; replay streams report
		// an unavailable tick at a mid-stream session boundary.
		c.lastSessionCheck = time.Time{}
	case errors.Is(err, io.EOF):
		monitoring.Logf("telemetry stream ended")
		return true, nil
	default:
		monitoring.Logf("telemetry poll failed: %v", err)
	}
	return false, nil
}
