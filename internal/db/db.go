// Package db persists sessions, snapshots and findings to SQLite.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"

	"github.com/apexloop-data/setup.coach/internal/findings"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			track_name        TEXT,
			source            TEXT,
			sim_session_id    BIGINT,
			sim_subsession_id BIGINT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS snapshots (
			session_id        TEXT,
			seq               BIGINT,
			timestamp_ms      BIGINT,
			speed_mps         DOUBLE,
			annotation_count  BIGINT,
			body              TEXT,
			PRIMARY KEY(session_id, seq),
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS findings (
			session_id        TEXT,
			finding_type      TEXT,
			corner_phase      TEXT,
			occurrences       BIGINT,
			confirmed         BOOLEAN,
			last_detected_ms  BIGINT,
			PRIMARY KEY(session_id, finding_type, corner_phase),
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordSession stores the session row, replacing a re-announced session.
func (db *DB) RecordSession(info telemetry.SessionInfo) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO sessions
			(session_id, track_name, source, sim_session_id, sim_subsession_id)
		VALUES (?, ?, ?, ?, ?)`,
		info.SessionID, info.TrackName, info.Source, info.SimSessionID, info.SimSubSessionID)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordSnapshot stores one annotated snapshot. The full document is kept
// as JSON alongside the columns queries filter on.
func (db *DB) RecordSnapshot(sessionID string, snap *telemetry.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %d: %w", snap.Seq, err)
	}
	var speed sql.NullFloat64
	if snap.SpeedMPS != nil {
		speed = sql.NullFloat64{Float64: *snap.SpeedMPS, Valid: true}
	}
	_, err = db.Exec(`
		INSERT OR REPLACE INTO snapshots
			(session_id, seq, timestamp_ms, speed_mps, annotation_count, body)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, snap.Seq, snap.TimestampMS, speed, len(snap.Annotations), string(body))
	if err != nil {
		return fmt.Errorf("failed to record snapshot %d: %w", snap.Seq, err)
	}
	return nil
}

// RecordFindings replaces the stored finding set for the session.
func (db *DB) RecordFindings(sessionID string, list []findings.Finding) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM findings WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}
	for _, f := range list {
		_, err := tx.Exec(`
			INSERT INTO findings
				(session_id, finding_type, corner_phase, occurrences, confirmed, last_detected_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID, string(f.Type), string(f.Phase), f.Count, f.Confirmed, f.LastDetectedMS)
		if err != nil {
			return fmt.Errorf("failed to record finding %s: %w", f.Type, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshots returns the session's snapshots in sequence order.
func (db *DB) LoadSnapshots(ctx context.Context, sessionID string) ([]telemetry.Snapshot, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT body FROM snapshots WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.Snapshot
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var snap telemetry.Snapshot
		if err := json.Unmarshal([]byte(body), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode stored snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SessionSummary aggregates a stored session's speed trace and annotation
// activity.
type SessionSummary struct {
	SessionID       string  `json:"session_id"`
	Snapshots       int     `json:"snapshots"`
	Annotations     int     `json:"annotations"`
	MeanSpeedMPS    float64 `json:"mean_speed_mps"`
	StdDevSpeedMPS  float64 `json:"stddev_speed_mps"`
	MaxSpeedMPS     float64 `json:"max_speed_mps"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Summarize computes a session summary from the stored snapshot columns.
func (db *DB) Summarize(ctx context.Context, sessionID string) (*SessionSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT timestamp_ms, speed_mps, annotation_count
		FROM snapshots WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &SessionSummary{SessionID: sessionID}
	var speeds []float64
	var firstMS, lastMS int64
	for rows.Next() {
		var ts int64
		var speed sql.NullFloat64
		var annCount int
		if err := rows.Scan(&ts, &speed, &annCount); err != nil {
			return nil, err
		}
		if summary.Snapshots == 0 {
			firstMS = ts
		}
		lastMS = ts
		summary.Snapshots++
		summary.Annotations += annCount
		if speed.Valid {
			speeds = append(speeds, speed.Float64)
			if speed.Float64 > summary.MaxSpeedMPS {
				summary.MaxSpeedMPS = speed.Float64
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(speeds) > 0 {
		summary.MeanSpeedMPS, summary.StdDevSpeedMPS = stat.MeanStdDev(speeds, nil)
	}
	if summary.Snapshots > 1 {
		summary.DurationSeconds = float64(lastMS-firstMS) / 1000
	}
	return summary, nil
}
