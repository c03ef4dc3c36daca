package session

import (
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/calibration"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/gaze"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/headpose"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
)

// #region config

// Config bundles every component's thresholds for one session.
type Config struct {
	Calibration calibration.Config
	Blink       blink.Config
	Gaze        gaze.Config
	HeadPose    headpose.Config
	Scoring     scoring.Config
}

// DefaultConfig returns production defaults for all components.
func DefaultConfig() Config {
	return Config{
		Calibration: calibration.DefaultConfig(),
		Blink:       blink.DefaultConfig(),
		Gaze:        gaze.DefaultConfig(),
		HeadPose:    headpose.DefaultConfig(),
		Scoring:     scoring.DefaultConfig(),
	}
}

// #endregion config

// #region results

// FrameResult is what one frame did to the session.
type FrameResult struct {
	Timestamp float64
	Skipped   bool // no single-face mesh, or out-of-order timestamp
	Status    calibration.Status
	Gaze      label.Label // empty when gaze was not classified
	Head      label.Label
	Blink     bool
}

// Result is the closed output of a finished session.
type Result struct {
	SessionID       string
	Duration        float64
	FramesProcessed int
	FramesSkipped   int

	Gaze           []scoring.LabelInterval
	Head           []scoring.LabelInterval
	Blinks         []blink.Event
	Anomalies      []anomaly.Episode
	Recalibrations []calibration.Record

	Score         scoring.ScoreResult
	Cheating      scoring.CheatingReport
	EyeContact    scoring.Evaluation
	Communication scoring.Evaluation
}

// Streams returns the interval and event streams for scoring.
func (r Result) Streams() scoring.Streams {
	return scoring.Streams{
		Gaze:      r.Gaze,
		Head:      r.Head,
		Blinks:    r.Blinks,
		Anomalies: r.Anomalies,
	}
}

// #endregion results

// Meta identifies the video a session analyzed.
type Meta struct {
	VideoKey   string `json:"video_key"`
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
}
