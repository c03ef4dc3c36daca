package store

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
)

// ErrNotFound is returned when a session id has no row.
var ErrNotFound = errors.New("session not found")

// SessionRow is the stored summary of one analyzed video.
type SessionRow struct {
	SessionID       string
	Meta            session.Meta
	CreatedAt       time.Time
	Duration        float64
	FramesProcessed int
	FramesSkipped   int
	Score           scoring.ScoreResult
	Cheating        scoring.CheatingReport
	EyeContact      scoring.Evaluation
	Communication   scoring.Evaluation
}
