// Package api exposes the live analysis state over HTTP: findings,
// recommendations, the latest annotated snapshot and session summaries.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/apexloop-data/setup.coach/internal/db"
	"github.com/apexloop-data/setup.coach/internal/findings"
	"github.com/apexloop-data/setup.coach/internal/httputil"
	"github.com/apexloop-data/setup.coach/internal/pipeline"
	"github.com/apexloop-data/setup.coach/internal/recommend"
	"github.com/apexloop-data/setup.coach/internal/report"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
	"github.com/apexloop-data/setup.coach/internal/units"
	"github.com/apexloop-data/setup.coach/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	aggregator *findings.Aggregator
	engine     *recommend.Engine
	runner     *pipeline.Runner
	store      *db.DB

	mu     sync.RWMutex
	latest *telemetry.Snapshot
}

// NewServer wires the query surface. store may be nil when persistence is
// disabled; the summary and report endpoints then report 404.
func NewServer(aggregator *findings.Aggregator, engine *recommend.Engine, runner *pipeline.Runner, store *db.DB) *Server {
	return &Server{
		aggregator: aggregator,
		engine:     engine,
		runner:     runner,
		store:      store,
	}
}

// Run keeps the live-snapshot cache current from a fan-out queue.
func (s *Server) Run(ctx context.Context, snapshots <-chan telemetry.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			s.mu.Lock()
			s.latest = &snap
			s.mu.Unlock()
		}
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/findings", s.listFindings)
	mux.HandleFunc("/api/findings/confirm", s.confirmFinding)
	mux.HandleFunc("/api/recommendations", s.listRecommendations)
	mux.HandleFunc("/api/live", s.showLive)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/session/summary", s.showSummary)
	mux.HandleFunc("/api/session/report", s.showReport)
	mux.HandleFunc("/api/version", s.showVersion)
	return mux
}

func (s *Server) listFindings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	list := s.aggregator.List()
	if list == nil {
		list = []findings.Finding{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) confirmFinding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var body struct {
		Type findings.Type `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Type == "" {
		httputil.BadRequest(w, "body must be {\"type\": \"<finding type>\"}")
		return
	}
	// Unknown targets are a no-op, not an error.
	s.aggregator.ToggleConfirmation(body.Type)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"confirmed": s.aggregator.IsConfirmed(body.Type)})
}

func (s *Server) listRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	processed := s.engine.Processed(s.aggregator.Confirmed())
	if processed == nil {
		processed = []recommend.Processed{}
	}
	httputil.WriteJSON(w, http.StatusOK, processed)
}

func (s *Server) showLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest == nil {
		httputil.NotFound(w, "no telemetry received yet")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, latest)
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := struct {
		State   string                 `json:"state"`
		Session *telemetry.SessionInfo `json:"session,omitempty"`
	}{
		State:   s.runner.State().String(),
		Session: s.runner.Session(),
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// sessionID resolves the requested session, defaulting to the live one.
func (s *Server) sessionID(r *http.Request) string {
	if id := r.URL.Query().Get("id"); id != "" {
		return id
	}
	if info := s.runner.Session(); info != nil {
		return info.SessionID
	}
	return ""
}

// speedUnit resolves the optional units query parameter, defaulting to m/s.
func speedUnit(r *http.Request) (string, error) {
	unit := r.URL.Query().Get("units")
	if unit == "" {
		return units.MPS, nil
	}
	if !units.IsValid(unit) {
		return "", fmt.Errorf("unknown units %q, expected one of mps, mph, kph", unit)
	}
	return unit, nil
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "persistence disabled")
		return
	}
	id := s.sessionID(r)
	if id == "" {
		httputil.BadRequest(w, "no session id")
		return
	}
	unit, err := speedUnit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	summary, err := s.store.Summarize(r.Context(), id)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := struct {
		*db.SessionSummary
		SpeedUnits string `json:"speed_units"`
	}{summary, unit}
	resp.MeanSpeedMPS = units.ConvertSpeed(summary.MeanSpeedMPS, unit)
	resp.StdDevSpeedMPS = units.ConvertSpeed(summary.StdDevSpeedMPS, unit)
	resp.MaxSpeedMPS = units.ConvertSpeed(summary.MaxSpeedMPS, unit)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "persistence disabled")
		return
	}
	id := s.sessionID(r)
	if id == "" {
		httputil.BadRequest(w, "no session id")
		return
	}
	snaps, err := s.store.LoadSnapshots(r.Context(), id)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(snaps) == 0 {
		httputil.NotFound(w, "no snapshots for session")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderSession(w, id, snaps); err != nil {
		log.Printf("render report: %v", err)
	}
}
