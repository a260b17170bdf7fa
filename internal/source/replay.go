package source

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/apexloop-data/setup.coach/internal/monitoring"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Replay produces snapshots from a recorded JSON-lines stream. Session
// boundary records update the reported session identity; malformed records
// are skipped with a log line so one bad record never ends the replay.
type Replay struct {
	mu      sync.Mutex
	dec     *telemetry.Decoder
	closer  io.Closer
	session *telemetry.SessionInfo
	done    bool
}

// OpenReplay opens a recording file for playback.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	return &Replay{dec: telemetry.NewDecoder(f), closer: f}, nil
}

// NewReplay reads a recorded stream from r. The caller retains ownership
// of r's lifetime.
func NewReplay(r io.Reader) *Replay {
	return &Replay{dec: telemetry.NewDecoder(r)}
}

// SessionInfo returns the most recent session boundary seen in the stream.
// It reads ahead until one is found so the pipeline can transition to
// Active before the first snapshot.
func (p *Replay) SessionInfo() (telemetry.SessionInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil && !p.done {
		if err := p.advanceToSessionLocked(); err != nil {
			return telemetry.SessionInfo{}, err
		}
	}
	if p.session == nil {
		return telemetry.SessionInfo{}, ErrUnavailable
	}
	return *p.session, nil
}

func (p *Replay) advanceToSessionLocked() error {
	for {
		rec, err := p.dec.Next()
		if err == io.EOF {
			p.done = true
			return nil
		}
		if err != nil {
			monitoring.Logf("replay: skipping record: %v", err)
			continue
		}
		if rec.Type == telemetry.RecordSession {
			p.session = rec.Session
			return nil
		}
		// Snapshots before the first session boundary have no session to
		// belong to and are discarded.
	}
}

// Telemetry returns the next recorded snapshot. Interleaved session
// records update the session identity and surface as a skipped tick so
// the caller re-reads SessionInfo before the new session's snapshots.
func (p *Replay) Telemetry() (telemetry.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.done {
			return telemetry.Snapshot{}, io.EOF
		}
		rec, err := p.dec.Next()
		if err == io.EOF {
			p.done = true
			return telemetry.Snapshot{}, io.EOF
		}
		if err != nil {
			monitoring.Logf("replay: skipping record: %v", err)
			continue
		}
		switch rec.Type {
		case telemetry.RecordSession:
			p.session = rec.Session
			return telemetry.Snapshot{}, ErrUnavailable
		case telemetry.RecordSnapshot:
			return *rec.Snapshot, nil
		}
	}
}

func (p *Replay) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
