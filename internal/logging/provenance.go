package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-run
// LogRun writes a run entry to the run_log table. A failed run has no
// frames behind its score, so the score is stored as NULL.
func LogRun(db *sql.DB, entry RunEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	status := entry.Status()
	if status == RunFailed {
		entry.ScoreJSON = ""
	}

	_, err := db.Exec(
		`INSERT INTO run_log (session_id, video_key, config_json, score_json, frames_processed, frames_skipped, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		nullIfEmpty(entry.VideoKey),
		nullIfEmpty(entry.ConfigJSON),
		nullIfEmpty(entry.ScoreJSON),
		entry.FramesProcessed,
		entry.FramesSkipped,
		string(status),
		nullIfEmpty(entry.Error),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log run %s: %w", entry.SessionID, err)
	}
	return nil
}
// #endregion log-run

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
