package logging

import "time"

// #region run-status
// RunStatus summarizes how far a video got.
type RunStatus string

const (
	RunOK      RunStatus = "ok"      // read to the end
	RunPartial RunStatus = "partial" // stopped early; the stored result covers the frames read
	RunFailed  RunStatus = "failed"  // stopped before any frame was read
)
// #endregion run-status

// #region run-entry
// RunEntry is a single row in the run_log table: one per analyzed video,
// successful or not.
type RunEntry struct {
	SessionID       string
	VideoKey        string
	ConfigJSON      string // thresholds active for the run
	ScoreJSON       string
	FramesProcessed int
	FramesSkipped   int
	Error           string
	CreatedAt       time.Time
}

// Status derives the run status from the error and the frames read.
func (e RunEntry) Status() RunStatus {
	switch {
	case e.Error == "":
		return RunOK
	case e.FramesProcessed+e.FramesSkipped > 0:
		return RunPartial
	default:
		return RunFailed
	}
}
// #endregion run-entry
