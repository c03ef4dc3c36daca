package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/eventlog"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to analysis.db")
	last := flag.Int("last", 20, "show N most recent sessions")
	sessionID := flag.String("session", "", "show single session detail")
	logsDir := flag.String("logs", "", "rescore JSONL event logs in this directory instead of the db")
	prefix := flag.String("prefix", "", "log file prefix, usually user_question (with --logs)")
	duration := flag.Float64("duration", 0, "video length for --logs (0 = latest event end)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *logsDir != "" {
		if *prefix == "" {
			fmt.Fprintln(os.Stderr, "usage: inspect --logs dir --prefix user_question [--duration s] [--json]")
			os.Exit(2)
		}
		if err := runLogsMode(*logsDir, *prefix, *duration, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/analysis.db [--last N] [--session id] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --logs dir --prefix user_question [--duration s] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *sessionID != "" {
		err = runDetailMode(st, *sessionID, *jsonOut)
	} else {
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID string  `json:"session_id"`
	VideoKey  string  `json:"video_key,omitempty"`
	UserID    string  `json:"user_id,omitempty"`
	Question  string  `json:"question_id,omitempty"`
	Duration  float64 `json:"duration"`
	TotalEye  float64 `json:"total_eye_score"`
	Violation int     `json:"violation_count"`
	Copying   bool    `json:"suspected_copying"`
	Imperson  bool    `json:"suspected_impersonation"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	sessions, err := st.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]listRow, len(sessions))
	for i, s := range sessions {
		rows[i] = listRow{
			SessionID: s.SessionID,
			VideoKey:  s.Meta.VideoKey,
			UserID:    s.Meta.UserID,
			Question:  s.Meta.QuestionID,
			Duration:  s.Duration,
			TotalEye:  s.Score.TotalEyeScore,
			Violation: s.Cheating.ViolationCount,
			Copying:   s.Cheating.SuspectedCopying,
			Imperson:  s.Cheating.SuspectedImpersonation,
			CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-10s  %-8s  %8s  %6s  %5s  %-4s  %-4s  %s\n",
		"Session", "User", "Question", "Duration", "Eye", "Viol", "Copy", "Imp", "Time")
	fmt.Printf("%-10s+-%-10s+-%-8s+-%8s+-%6s+-%5s+-%-4s+-%-4s+-%s\n",
		"----------", "----------", "--------", "--------", "------", "-----", "----", "----", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-10s  %-8s  %8.1f  %6.1f  %5d  %-4s  %-4s  %s\n",
			shortID(r.SessionID), r.UserID, r.Question, r.Duration, r.TotalEye,
			r.Violation, yesNo(r.Copying), yesNo(r.Imperson), r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	SessionID       string                 `json:"session_id"`
	VideoKey        string                 `json:"video_key,omitempty"`
	UserID          string                 `json:"user_id,omitempty"`
	QuestionID      string                 `json:"question_id,omitempty"`
	CreatedAt       string                 `json:"created_at,omitempty"`
	FramesProcessed int                    `json:"frames_processed"`
	FramesSkipped   int                    `json:"frames_skipped"`
	RowsSkipped     int                    `json:"rows_skipped,omitempty"`
	Score           scoring.ScoreResult    `json:"score"`
	Cheating        scoring.CheatingReport `json:"cheating"`
	EyeContact      scoring.Evaluation     `json:"eye_contact"`
	Communication   scoring.Evaluation     `json:"communication"`
}

func runDetailMode(st *store.Store, sessionID string, jsonOut bool) error {
	row, err := st.GetSession(sessionID)
	if err != nil {
		return err
	}
	// the stored report is what the analyzer saw; the streams are reread to
	// surface rows that no longer parse
	_, skipped, err := st.LoadStreams(sessionID)
	if err != nil {
		return err
	}

	out := detailOutput{
		SessionID:       row.SessionID,
		VideoKey:        row.Meta.VideoKey,
		UserID:          row.Meta.UserID,
		QuestionID:      row.Meta.QuestionID,
		CreatedAt:       row.CreatedAt.Format("2006-01-02T15:04:05Z"),
		FramesProcessed: row.FramesProcessed,
		FramesSkipped:   row.FramesSkipped,
		RowsSkipped:     skipped,
		Score:           row.Score,
		Cheating:        row.Cheating,
		EyeContact:      row.EyeContact,
		Communication:   row.Communication,
	}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Session:    %s\n", out.SessionID)
	fmt.Printf("Video:      %s\n", out.VideoKey)
	fmt.Printf("Candidate:  %s / %s\n", out.UserID, out.QuestionID)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	fmt.Printf("Frames:     %d analyzed, %d skipped\n", out.FramesProcessed, out.FramesSkipped)
	if skipped > 0 {
		fmt.Printf("Bad rows:   %d\n", skipped)
	}
	printReport(out.Score, out.Cheating, out.EyeContact, out.Communication)
	return nil
}

// #endregion detail-mode

// #region logs-mode

// runLogsMode scores the JSONL logs of one video without a database.
func runLogsMode(dir, prefix string, duration float64, jsonOut bool) error {
	streams, skipped, err := eventlog.ReadStreams(dir, prefix)
	if err != nil {
		return err
	}
	if duration <= 0 {
		duration = latestEnd(streams)
	}

	cfg := scoring.DefaultConfig()
	out := detailOutput{
		SessionID:   prefix,
		RowsSkipped: skipped,
		Score:       scoring.Score(streams, duration, cfg),
		Cheating:    scoring.DetectCheating(streams.Head, streams.Anomalies, cfg),
	}
	out.EyeContact, _ = scoring.EvaluateEyeContact(streams.Gaze)
	out.Communication, _ = scoring.EvaluateCommunication(streams.Blinks)

	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("Logs:       %s/%s*\n", dir, prefix)
	fmt.Printf("Duration:   %.2fs\n", duration)
	if skipped > 0 {
		fmt.Printf("Bad lines:  %d\n", skipped)
	}
	printReport(out.Score, out.Cheating, out.EyeContact, out.Communication)
	return nil
}

func latestEnd(s scoring.Streams) float64 {
	var end float64
	for _, iv := range s.Gaze {
		end = max(end, iv.End)
	}
	for _, iv := range s.Head {
		end = max(end, iv.End)
	}
	for _, ep := range s.Anomalies {
		end = max(end, ep.End)
	}
	for _, b := range s.Blinks {
		end = max(end, b.Time)
	}
	return end
}

// #endregion logs-mode

// #region output

func printReport(s scoring.ScoreResult, c scoring.CheatingReport, eye, comm scoring.Evaluation) {
	fmt.Printf("\nScores:\n")
	fmt.Printf("  %-14s %5.1f / 15\n", "concentration", s.ConcentrationScore)
	fmt.Printf("  %-14s %5.1f / 15\n", "stability", s.StabilityScore)
	fmt.Printf("  %-14s %5.1f / 10\n", "blink", s.BlinkScore)
	fmt.Printf("  %-14s %5.1f / 40\n", "total", s.TotalEyeScore)
	fmt.Printf("  center %.1f%%, %d blinks (%.1f/min), %d direction changes\n",
		s.CenterTimeRatio, s.BlinkCount, s.BlinksPerMinute, s.DirectionChanges)

	fmt.Printf("\nEvaluation:\n")
	fmt.Printf("  %-14s %3d  %-9s %s\n", eye.Category, eye.Score, eye.Band, eye.Comment)
	fmt.Printf("  %-14s %3d  %-9s %s\n", comm.Category, comm.Score, comm.Band, comm.Comment)

	fmt.Printf("\nCheating: %s\n", c.Summary)
	for _, v := range c.Violations {
		fmt.Printf("  %3d  %-24s %7.2f - %7.2f  %s\n", v.Index, v.Kind, v.Start, v.End, v.Comment)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
