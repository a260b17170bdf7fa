package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexloop-data/setup.coach/internal/detect"
	"github.com/apexloop-data/setup.coach/internal/findings"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// stubDetector scripts Process results and counts resets.
type stubDetector struct {
	name    string
	process func(*telemetry.Snapshot) []telemetry.Annotation
	resets  int
}

func (d *stubDetector) Name() string { return d.name }
func (d *stubDetector) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if d.process == nil {
		return nil
	}
	return d.process(snap)
}
func (d *stubDetector) Reset() { d.resets++ }

func emit(ann telemetry.Annotation) func(*telemetry.Snapshot) []telemetry.Annotation {
	return func(*telemetry.Snapshot) []telemetry.Annotation {
		return []telemetry.Annotation{ann}
	}
}

func newTestRunner(detectors ...detect.Detector) (*Runner, *findings.Aggregator) {
	agg := findings.NewAggregator()
	return NewRunner(detectors, agg), agg
}

func drain(c *Consumer) []telemetry.Snapshot {
	var out []telemetry.Snapshot
	for {
		select {
		case snap := <-c.C():
			out = append(out, snap)
		default:
			return out
		}
	}
}

func TestRunnerDiscardsWhileIdle(t *testing.T) {
	runner, agg := newTestRunner(&stubDetector{name: "a", process: emit(telemetry.Scrub{})})
	consumer := NewConsumer("test", 4)
	runner.Subscribe(consumer)

	assert.Equal(t, Idle, runner.State())
	runner.Process(telemetry.Snapshot{TimestampMS: 1})
	assert.Empty(t, drain(consumer))
	assert.Empty(t, agg.List())
	assert.Nil(t, runner.Session())
}

func TestOnSessionStartsAndResets(t *testing.T) {
	det := &stubDetector{name: "a"}
	runner, _ := newTestRunner(det)

	runner.OnSession(telemetry.SessionInfo{TrackName: "spa", SimSessionID: 7})
	assert.Equal(t, Active, runner.State())
	require.NotNil(t, runner.Session())
	assert.NotEmpty(t, runner.Session().SessionID, "a session without an ID gets one assigned")
	assert.Equal(t, 1, det.resets)

	// The same session reported again is a no-op.
	firstID := runner.Session().SessionID
	runner.OnSession(telemetry.SessionInfo{TrackName: "spa", SimSessionID: 7})
	assert.Equal(t, firstID, runner.Session().SessionID)
	assert.Equal(t, 1, det.resets)
}

func TestSessionChangeClearsFindings(t *testing.T) {
	runner, agg := newTestRunner(&stubDetector{name: "a", process: emit(telemetry.Scrub{})})
	runner.OnSession(telemetry.SessionInfo{TrackName: "spa", SimSessionID: 7})
	runner.Process(telemetry.Snapshot{TimestampMS: 1})
	require.NotEmpty(t, agg.List())

	runner.OnSession(telemetry.SessionInfo{TrackName: "monza", SimSessionID: 8})
	assert.Empty(t, agg.List())

	// Sequence numbering restarts with the session.
	consumer := NewConsumer("test", 4)
	runner.Subscribe(consumer)
	runner.Process(telemetry.Snapshot{TimestampMS: 2})
	snaps := drain(consumer)
	require.Len(t, snaps, 1)
	assert.Equal(t, uint64(1), snaps[0].Seq)
}

func TestAnnotationOrderFollowsBankOrder(t *testing.T) {
	first := telemetry.Scrub{CurrentShortfall: 1}
	second := telemetry.Scrub{CurrentShortfall: 2}
	runner, _ := newTestRunner(
		&stubDetector{name: "first", process: emit(first)},
		&stubDetector{name: "second", process: emit(second)},
	)
	consumer := NewConsumer("test", 4)
	runner.Subscribe(consumer)
	runner.OnSession(telemetry.SessionInfo{SimSessionID: 1})

	runner.Process(telemetry.Snapshot{TimestampMS: 1})
	snaps := drain(consumer)
	require.Len(t, snaps, 1)
	require.Len(t, snaps[0].Annotations, 2)
	assert.Equal(t, first, snaps[0].Annotations[0])
	assert.Equal(t, second, snaps[0].Annotations[1])
}

func TestDetectorPanicIsIsolated(t *testing.T) {
	good := telemetry.Scrub{CurrentShortfall: 1}
	runner, _ := newTestRunner(
		&stubDetector{name: "faulty", process: func(*telemetry.Snapshot) []telemetry.Annotation {
			panic("nil map write")
		}},
		&stubDetector{name: "healthy", process: emit(good)},
	)
	consumer := NewConsumer("test", 4)
	runner.Subscribe(consumer)
	runner.OnSession(telemetry.SessionInfo{SimSessionID: 1})

	// The fault is contained to its detector and its tick; later detectors
	// and later ticks still run.
	for i := 0; i < 2; i++ {
		runner.Process(telemetry.Snapshot{TimestampMS: int64(i)})
	}
	snaps := drain(consumer)
	require.Len(t, snaps, 2)
	for _, snap := range snaps {
		require.Len(t, snap.Annotations, 1)
		assert.Equal(t, good, snap.Annotations[0])
	}
}

func TestConsumerDropsOldestWhenFull(t *testing.T) {
	consumer := NewConsumer("slow", 2)
	for ts := int64(1); ts <= 4; ts++ {
		consumer.offer(telemetry.Snapshot{TimestampMS: ts})
	}

	assert.Equal(t, int64(2), consumer.Dropped())
	snaps := drain(consumer)
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(3), snaps[0].TimestampMS)
	assert.Equal(t, int64(4), snaps[1].TimestampMS)
}

func TestSlowConsumerDoesNotStallOthers(t *testing.T) {
	runner, _ := newTestRunner(&stubDetector{name: "a"})
	slow := NewConsumer("slow", 1)
	fast := NewConsumer("fast", 8)
	runner.Subscribe(slow)
	runner.Subscribe(fast)
	runner.OnSession(telemetry.SessionInfo{SimSessionID: 1})

	for i := 0; i < 5; i++ {
		runner.Process(telemetry.Snapshot{TimestampMS: int64(i)})
	}
	assert.Len(t, drain(fast), 5)
	assert.Equal(t, int64(4), slow.Dropped())
	assert.Len(t, drain(slow), 1)
}
