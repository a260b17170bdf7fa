package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apexloop-data/setup.coach/internal/monitoring"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Recorder writes the annotated stream to a JSON-lines file that Replay
// can play back. A session boundary line is written whenever the session
// identity changes.
type Recorder struct {
	enc     *telemetry.Encoder
	closer  io.Closer
	session func() *telemetry.SessionInfo

	lastSessionID string
}

// NewRecorder creates a recording at path, truncating any existing file.
// session reports the pipeline's current session and may return nil while
// idle.
func NewRecorder(path string, session func() *telemetry.SessionInfo) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}
	return &Recorder{enc: telemetry.NewEncoder(f), closer: f, session: session}, nil
}

// Run consumes snapshots until the context is cancelled or the channel
// closes, then flushes and closes the file.
func (r *Recorder) Run(ctx context.Context, snapshots <-chan telemetry.Snapshot) {
	defer r.close()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			r.record(&snap)
		}
	}
}

func (r *Recorder) record(snap *telemetry.Snapshot) {
	if info := r.session(); info != nil && info.SessionID != r.lastSessionID {
		if err := r.enc.EncodeSession(*info); err != nil {
			monitoring.Logf("record session %s: %v", info.SessionID, err)
			return
		}
		r.lastSessionID = info.SessionID
	}
	if err := r.enc.EncodeSnapshot(snap); err != nil {
		monitoring.Logf("record snapshot %d: %v", snap.Seq, err)
	}
}

func (r *Recorder) close() {
	if err := r.enc.Flush(); err != nil {
		monitoring.Logf("flush recording: %v", err)
	}
	if err := r.closer.Close(); err != nil {
		monitoring.Logf("close recording: %v", err)
	}
}
