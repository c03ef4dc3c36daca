package logging

import (
	"bytes"
	"database/sql"
	"log/slog"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE run_log (
		session_id       TEXT NOT NULL,
		video_key        TEXT,
		config_json      TEXT,
		score_json       TEXT,
		frames_processed INTEGER NOT NULL,
		frames_skipped   INTEGER NOT NULL,
		status           TEXT NOT NULL,
		error            TEXT,
		created_at       TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-run-tests
func TestLogRun_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := RunEntry{
		SessionID:       "s1",
		VideoKey:        "interview_video/u1/Q1/a.webm",
		ConfigJSON:      `{"Calibration":{"Window":1}}`,
		ScoreJSON:       `{"total_eye_score":38.5}`,
		FramesProcessed: 120,
		FramesSkipped:   3,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogRun(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sessionID string
	var processed int
	db.QueryRow("SELECT session_id, frames_processed FROM run_log").Scan(&sessionID, &processed)
	if sessionID != "s1" || processed != 120 {
		t.Errorf("unexpected row: session_id=%q frames_processed=%d", sessionID, processed)
	}
}

func TestLogRun_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	if err := LogRun(db, RunEntry{SessionID: "s2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM run_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogRun_EmptyOptionalFieldsAreNull(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogRun(db, RunEntry{SessionID: "s3", Error: ""}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var videoKey, errText sql.NullString
	db.QueryRow("SELECT video_key, error FROM run_log").Scan(&videoKey, &errText)
	if videoKey.Valid || errText.Valid {
		t.Error("expected NULL for empty optional fields")
	}
}

func TestLogRun_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := LogRun(db, RunEntry{SessionID: "s4"}); err == nil {
		t.Error("expected error without run_log table")
	}
}

func TestLogRun_Status(t *testing.T) {
	tests := []struct {
		name      string
		entry     RunEntry
		want      RunStatus
		wantScore bool
	}{
		{"clean run", RunEntry{SessionID: "ok", FramesProcessed: 10, ScoreJSON: `{"total_eye_score":40}`}, RunOK, true},
		{"stopped mid-video", RunEntry{SessionID: "mid", FramesProcessed: 2, FramesSkipped: 2, ScoreJSON: `{"total_eye_score":12}`, Error: "read: disk gone"}, RunPartial, true},
		{"nothing read", RunEntry{SessionID: "none", ScoreJSON: `{"total_eye_score":0}`, Error: "open: no such file"}, RunFailed, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := setupDB(t)
			defer db.Close()

			if got := tc.entry.Status(); got != tc.want {
				t.Errorf("Status: expected %s, got %s", tc.want, got)
			}
			if err := LogRun(db, tc.entry); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var status string
			var score sql.NullString
			if err := db.QueryRow("SELECT status, score_json FROM run_log").Scan(&status, &score); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if status != string(tc.want) {
				t.Errorf("stored status: expected %s, got %s", tc.want, status)
			}
			if score.Valid != tc.wantScore {
				t.Errorf("score stored=%v, expected %v", score.Valid, tc.wantScore)
			}
		})
	}
}

// #endregion log-run-tests

// #region logger-tests
func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestNewLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown", "reason", "no_face")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "reason=no_face") {
		t.Errorf("unexpected log output: %q", out)
	}
}

// #endregion logger-tests
