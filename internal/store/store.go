// Package store persists analysis sessions, their closed streams and scores
// in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id       TEXT PRIMARY KEY,
	video_key        TEXT,
	user_id          TEXT,
	question_id      TEXT,
	created_at       TEXT NOT NULL,
	duration         REAL NOT NULL,
	frames_processed INTEGER NOT NULL,
	frames_skipped   INTEGER NOT NULL,
	score_json       TEXT NOT NULL,
	cheating_json    TEXT NOT NULL,
	eye_contact_json   TEXT,
	communication_json TEXT
);

CREATE TABLE IF NOT EXISTS intervals (
	session_id  TEXT NOT NULL,
	stream      TEXT NOT NULL CHECK (stream IN ('gaze', 'head')),
	idx         INTEGER NOT NULL,
	start_time  REAL NOT NULL,
	end_time    REAL NOT NULL,
	label       TEXT NOT NULL,
	PRIMARY KEY (session_id, stream, idx),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS blinks (
	session_id  TEXT NOT NULL,
	blink_index INTEGER NOT NULL,
	time        REAL NOT NULL,
	PRIMARY KEY (session_id, blink_index),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS anomalies (
	session_id  TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	start_time  REAL NOT NULL,
	end_time    REAL NOT NULL,
	reason      TEXT NOT NULL,
	face_count  INTEGER NOT NULL,
	PRIMARY KEY (session_id, idx),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS recalibrations (
	session_id  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	start_time  REAL NOT NULL,
	end_time    REAL NOT NULL,
	PRIMARY KEY (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS frames (
	session_id     TEXT NOT NULL,
	seq            INTEGER NOT NULL,
	t              REAL NOT NULL,
	face_count     INTEGER NOT NULL,
	landmarks_json TEXT,
	PRIMARY KEY (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_log (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	video_key        TEXT,
	config_json      TEXT,
	score_json       TEXT,
	frames_processed INTEGER NOT NULL,
	frames_skipped   INTEGER NOT NULL,
	status           TEXT NOT NULL,
	error            TEXT,
	created_at       TEXT NOT NULL
);
`
// #endregion schema

// #region store-struct
// Store manages analysis results in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// batch workers share the store; sqlite takes one writer at a time
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the run log.
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion constructor

// #region save
// SaveResult writes a finished session and all of its streams in one
// transaction.
func (s *Store) SaveResult(r session.Result, meta session.Meta) error {
	scoreJSON, err := json.Marshal(r.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	cheatJSON, err := json.Marshal(r.Cheating)
	if err != nil {
		return fmt.Errorf("marshal cheating: %w", err)
	}
	eyeJSON, err := json.Marshal(r.EyeContact)
	if err != nil {
		return fmt.Errorf("marshal eye contact: %w", err)
	}
	commJSON, err := json.Marshal(r.Communication)
	if err != nil {
		return fmt.Errorf("marshal communication: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, video_key, user_id, question_id, created_at, duration,
		 frames_processed, frames_skipped, score_json, cheating_json, eye_contact_json, communication_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID,
		nullIfEmpty(meta.VideoKey),
		nullIfEmpty(meta.UserID),
		nullIfEmpty(meta.QuestionID),
		time.Now().UTC().Format(timeLayout),
		r.Duration,
		r.FramesProcessed,
		r.FramesSkipped,
		string(scoreJSON),
		string(cheatJSON),
		string(eyeJSON),
		string(commJSON),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for stream, ivs := range map[string][]scoring.LabelInterval{"gaze": r.Gaze, "head": r.Head} {
		for _, iv := range ivs {
			_, err := tx.Exec(
				`INSERT INTO intervals (session_id, stream, idx, start_time, end_time, label)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				r.SessionID, stream, iv.Index,
				scoring.Round(iv.Start, 2), scoring.Round(iv.End, 2), string(iv.Value),
			)
			if err != nil {
				return fmt.Errorf("insert %s interval %d: %w", stream, iv.Index, err)
			}
		}
	}
	for _, ev := range r.Blinks {
		_, err := tx.Exec(
			`INSERT INTO blinks (session_id, blink_index, time) VALUES (?, ?, ?)`,
			r.SessionID, ev.Index, scoring.Round(ev.Time, 2),
		)
		if err != nil {
			return fmt.Errorf("insert blink %d: %w", ev.Index, err)
		}
	}
	for _, ep := range r.Anomalies {
		_, err := tx.Exec(
			`INSERT INTO anomalies (session_id, idx, start_time, end_time, reason, face_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.SessionID, ep.Index,
			scoring.Round(ep.Start, 2), scoring.Round(ep.End, 2), string(ep.Reason), ep.FaceCount,
		)
		if err != nil {
			return fmt.Errorf("insert anomaly %d: %w", ep.Index, err)
		}
	}
	for i, rc := range r.Recalibrations {
		_, err := tx.Exec(
			`INSERT INTO recalibrations (session_id, seq, start_time, end_time) VALUES (?, ?, ?, ?)`,
			r.SessionID, i+1, scoring.Round(rc.Start, 3), scoring.Round(rc.End, 3),
		)
		if err != nil {
			return fmt.Errorf("insert recalibration %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SaveFrames stores the raw detector samples of a saved session so it can
// be replayed later.
func (s *Store) SaveFrames(sessionID string, frames []landmark.FrameSample) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO frames (session_id, seq, t, face_count, landmarks_json) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare frame insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range frames {
		var lm interface{}
		if len(f.Landmarks) > 0 {
			data, err := json.Marshal(f.Landmarks)
			if err != nil {
				return fmt.Errorf("marshal frame %d: %w", i, err)
			}
			lm = string(data)
		}
		if _, err := stmt.Exec(sessionID, i, f.Timestamp, f.FaceCount, lm); err != nil {
			return fmt.Errorf("insert frame %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
// #endregion save

// #region load
// GetSession returns the stored summary for one session.
func (s *Store) GetSession(sessionID string) (SessionRow, error) {
	row := s.db.QueryRow(sessionSelect+` WHERE session_id = ?`, sessionID)
	r, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{}, fmt.Errorf("get session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return SessionRow{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return r, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]SessionRow, error) {
	rows, err := s.db.Query(sessionSelect+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadStreams reads the closed streams of a session back for scoring.
// Rows whose label or reason no longer parses are skipped and counted.
func (s *Store) LoadStreams(sessionID string) (scoring.Streams, int, error) {
	var st scoring.Streams
	skipped := 0

	rows, err := s.db.Query(
		`SELECT stream, idx, start_time, end_time, label FROM intervals
		 WHERE session_id = ? ORDER BY stream, idx`, sessionID)
	if err != nil {
		return st, 0, fmt.Errorf("query intervals: %w", err)
	}
	for rows.Next() {
		var stream, lbl string
		var iv scoring.LabelInterval
		if err := rows.Scan(&stream, &iv.Index, &iv.Start, &iv.End, &lbl); err != nil {
			rows.Close()
			return st, skipped, fmt.Errorf("scan interval: %w", err)
		}
		l, err := label.Parse(lbl)
		if err != nil || !l.IsDirectional() || iv.Start > iv.End {
			skipped++
			continue
		}
		iv.Value = l
		if stream == "gaze" {
			st.Gaze = append(st.Gaze, iv)
		} else {
			st.Head = append(st.Head, iv)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, skipped, fmt.Errorf("iterate intervals: %w", err)
	}

	rows, err = s.db.Query(
		`SELECT blink_index, time FROM blinks WHERE session_id = ? ORDER BY blink_index`, sessionID)
	if err != nil {
		return st, skipped, fmt.Errorf("query blinks: %w", err)
	}
	for rows.Next() {
		var ev blink.Event
		if err := rows.Scan(&ev.Index, &ev.Time); err != nil {
			rows.Close()
			return st, skipped, fmt.Errorf("scan blink: %w", err)
		}
		st.Blinks = append(st.Blinks, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, skipped, fmt.Errorf("iterate blinks: %w", err)
	}

	rows, err = s.db.Query(
		`SELECT idx, start_time, end_time, reason, face_count FROM anomalies
		 WHERE session_id = ? ORDER BY idx`, sessionID)
	if err != nil {
		return st, skipped, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ep anomaly.Episode
		var reason string
		if err := rows.Scan(&ep.Index, &ep.Start, &ep.End, &reason, &ep.FaceCount); err != nil {
			return st, skipped, fmt.Errorf("scan anomaly: %w", err)
		}
		if want, ok := anomaly.Categorize(ep.FaceCount); !ok || string(want) != reason {
			skipped++
			continue
		}
		ep.Reason = anomaly.Reason(reason)
		st.Anomalies = append(st.Anomalies, ep)
	}
	if err := rows.Err(); err != nil {
		return st, skipped, fmt.Errorf("iterate anomalies: %w", err)
	}
	return st, skipped, nil
}

// LoadFrames returns the stored detector samples of a session in order.
func (s *Store) LoadFrames(sessionID string) ([]landmark.FrameSample, error) {
	rows, err := s.db.Query(
		`SELECT t, face_count, landmarks_json FROM frames WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []landmark.FrameSample
	for rows.Next() {
		var f landmark.FrameSample
		var lm sql.NullString
		if err := rows.Scan(&f.Timestamp, &f.FaceCount, &lm); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if lm.Valid {
			if err := json.Unmarshal([]byte(lm.String), &f.Landmarks); err != nil {
				return nil, fmt.Errorf("unmarshal landmarks at t=%v: %w", f.Timestamp, err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
// #endregion load

// #region helpers
// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sessionSelect = `SELECT session_id, video_key, user_id, question_id, created_at, duration,
	frames_processed, frames_skipped, score_json, cheating_json, eye_contact_json, communication_json
	FROM sessions`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(sc scanner) (SessionRow, error) {
	var r SessionRow
	var videoKey, userID, questionID, eyeJSON, commJSON sql.NullString
	var createdAt, scoreJSON, cheatJSON string
	err := sc.Scan(
		&r.SessionID, &videoKey, &userID, &questionID, &createdAt, &r.Duration,
		&r.FramesProcessed, &r.FramesSkipped, &scoreJSON, &cheatJSON, &eyeJSON, &commJSON,
	)
	if err != nil {
		return SessionRow{}, err
	}
	r.Meta = session.Meta{VideoKey: videoKey.String, UserID: userID.String, QuestionID: questionID.String}
	r.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return SessionRow{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(scoreJSON), &r.Score); err != nil {
		return SessionRow{}, fmt.Errorf("unmarshal score: %w", err)
	}
	if err := json.Unmarshal([]byte(cheatJSON), &r.Cheating); err != nil {
		return SessionRow{}, fmt.Errorf("unmarshal cheating: %w", err)
	}
	if eyeJSON.Valid {
		if err := json.Unmarshal([]byte(eyeJSON.String), &r.EyeContact); err != nil {
			return SessionRow{}, fmt.Errorf("unmarshal eye contact: %w", err)
		}
	}
	if commJSON.Valid {
		if err := json.Unmarshal([]byte(commJSON.String), &r.Communication); err != nil {
			return SessionRow{}, fmt.Errorf("unmarshal communication: %w", err)
		}
	}
	return r, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
