package db

import (
	"context"

	"github.com/apexloop-data/setup.coach/internal/monitoring"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Persister drains annotated snapshots from a fan-out queue into the
// database. A storage error loses that record only; the drain keeps going.
type Persister struct {
	db      *DB
	session func() *telemetry.SessionInfo

	lastSessionID string
}

// NewPersister builds a persister. session reports the pipeline's current
// session and may return nil while idle.
func NewPersister(db *DB, session func() *telemetry.SessionInfo) *Persister {
	return &Persister{db: db, session: session}
}

// Run consumes snapshots until the context is cancelled or the channel
// closes.
func (p *Persister) Run(ctx context.Context, snapshots <-chan telemetry.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			p.persist(&snap)
		}
	}
}

func (p *Persister) persist(snap *telemetry.Snapshot) {
	info := p.session()
	if info == nil {
		return
	}
	if info.SessionID != p.lastSessionID {
		if err := p.db.RecordSession(*info); err != nil {
			monitoring.Logf("persist session %s: %v", info.SessionID, err)
			return
		}
		p.lastSessionID = info.SessionID
	}
	if err := p.db.RecordSnapshot(info.SessionID, snap); err != nil {
		monitoring.Logf("persist snapshot %d: %v", snap.Seq, err)
	}
}
