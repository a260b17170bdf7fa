// Package pipeline drives snapshots from a telemetry source through the
// detector bank and fans annotated snapshots out to consumers.
package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/apexloop-data/setup.coach/internal/detect"
	"github.com/apexloop-data/setup.coach/internal/findings"
	"github.com/apexloop-data/setup.coach/internal/monitoring"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// State is the runner's lifecycle state.
type State int

const (
	// Idle means no session has been seen yet.
	Idle State = iota
	// Active means a session is in progress and snapshots are analyzed.
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Consumer receives annotated snapshots over a bounded queue. When the
// queue is full the oldest unread snapshot is dropped so a slow consumer
// never stalls the tick loop.
type Consumer struct {
	name    string
	ch      chan telemetry.Snapshot
	dropped atomic.Int64
}

func NewConsumer(name string, queueSize int) *Consumer {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Consumer{name: name, ch: make(chan telemetry.Snapshot, queueSize)}
}

func (c *Consumer) Name() string { return c.name }

// C is the receive side of the consumer's queue.
func (c *Consumer) C() <-chan telemetry.Snapshot { return c.ch }

// Dropped reports how many snapshots were discarded because the consumer
// fell behind.
func (c *Consumer) Dropped() int64 { return c.dropped.Load() }

// offer enqueues the snapshot, evicting the oldest queued item if full.
func (c *Consumer) offer(snap telemetry.Snapshot) {
	for {
		select {
		case c.ch <- snap:
			return
		default:
		}
		select {
		case <-c.ch:
			c.dropped.Add(1)
		default:
		}
	}
}

// Runner owns the tick loop state. It processes one snapshot at a time;
// session changes reset every detector and clear the finding aggregator.
type Runner struct {
	detectors  []detect.Detector
	aggregator *findings.Aggregator

	mu        sync.Mutex
	state     State
	session   *telemetry.SessionInfo
	sessionID string
	seq       uint64
	consumers []*Consumer
}

func NewRunner(detectors []detect.Detector, aggregator *findings.Aggregator) *Runner {
	return &Runner{
		detectors:  detectors,
		aggregator: aggregator,
		state:      Idle,
	}
}

// Subscribe registers a consumer for annotated snapshots. Must be called
// before the first snapshot arrives.
func (r *Runner) Subscribe(c *Consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers = append(r.consumers, c)
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Session returns the current session info, or nil while idle.
func (r *Runner) Session() *telemetry.SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	copied := *r.session
	return &copied
}

// OnSession handles a session boundary. A session identical to the current
// one is a no-op; anything else transitions the runner to Active with
// fresh detector and finding state.
func (r *Runner) OnSession(info telemetry.SessionInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil && r.session.Same(info) {
		return
	}
	if info.SessionID == "" {
		info.SessionID = uuid.NewString()
	}
	for _, d := range r.detectors {
		d.Reset()
	}
	r.aggregator.Clear()
	r.session = &info
	r.sessionID = info.SessionID
	r.seq = 0
	r.state = Active
	monitoring.Logf("session start: id=%s track=%q source=%s", info.SessionID, info.TrackName, info.Source)
}

// Process runs one snapshot through the detector bank in declaration
// order and fans the annotated result out. Snapshots received while idle
// are discarded.
func (r *Runner) Process(snap telemetry.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Active {
		return
	}
	r.seq++
	snap.Seq = r.seq

	for _, d := range r.detectors {
		anns := runDetector(d, &snap, r.session)
		snap.Annotations = append(snap.Annotations, anns...)
	}

	r.aggregator.Ingest(&snap)
	for _, c := range r.consumers {
		c.offer(snap)
	}
}

// runDetector isolates a single detector fault: a panic is logged and
// treated as no annotations for this tick only.
func runDetector(d detect.Detector, snap *telemetry.Snapshot, session *telemetry.SessionInfo) (anns []telemetry.Annotation) {
	defer func() {
		if rec := recover(); rec != nil {
			monitoring.Logf("detector %s fault at seq %d: %v", d.Name(), snap.Seq, rec)
			anns = nil
		}
	}()
	return d.Process(snap, session)
}
