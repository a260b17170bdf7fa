package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

func TestRecorderRoundTripThroughReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stint.jsonl")

	current := &telemetry.SessionInfo{SessionID: "s1", TrackName: "spa", SimSessionID: 1}
	recorder, err := NewRecorder(path, func() *telemetry.SessionInfo { return current })
	require.NoError(t, err)

	ch := make(chan telemetry.Snapshot, 8)
	ch <- telemetry.Snapshot{Seq: 1, TimestampMS: 100, SpeedMPS: fp(40)}
	ch <- telemetry.Snapshot{Seq: 2, TimestampMS: 200, SpeedMPS: fp(41)}
	close(ch)
	recorder.Run(context.Background(), ch)

	replay, err := OpenReplay(path)
	require.NoError(t, err)
	defer replay.Close()

	info, err := replay.SessionInfo()
	require.NoError(t, err)
	assert.Equal(t, "s1", info.SessionID)
	assert.Equal(t, "spa", info.TrackName)

	snap, err := replay.Telemetry()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Seq)
	snap, err = replay.Telemetry()
	require.NoError(t, err)
	assert.Equal(t, int64(200), snap.TimestampMS)
}

func TestRecorderWritesSessionBoundaryOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stint.jsonl")

	current := &telemetry.SessionInfo{SessionID: "s1", SimSessionID: 1}
	recorder, err := NewRecorder(path, func() *telemetry.SessionInfo { return current })
	require.NoError(t, err)

	recorder.record(&telemetry.Snapshot{Seq: 1})
	current = &telemetry.SessionInfo{SessionID: "s2", SimSessionID: 2}
	recorder.record(&telemetry.Snapshot{Seq: 2})
	recorder.close()

	replay, err := OpenReplay(path)
	require.NoError(t, err)
	defer replay.Close()

	info, err := replay.SessionInfo()
	require.NoError(t, err)
	assert.Equal(t, "s1", info.SessionID)

	_, err = replay.Telemetry()
	require.NoError(t, err)
	_, err = replay.Telemetry()
	assert.ErrorIs(t, err, ErrUnavailable, "session change must surface before its snapshots")

	info, err = replay.SessionInfo()
	require.NoError(t, err)
	assert.Equal(t, "s2", info.SessionID)
}
