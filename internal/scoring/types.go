package scoring

import (
	"errors"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/segment"
)

// ErrEmptyStream marks a computation that had no input to work from.
// Callers fall back to documented defaults instead of failing.
var ErrEmptyStream = errors.New("empty stream")

// #region config

// Config holds scoring constants.
type Config struct {
	DefaultCenterRatio  float64 // used when no gaze time was logged
	MaxDirectionChanges float64 // gaze intervals at which stability reaches 0
	CopyingThreshold    int     // violations at or above which copying is suspected
}

// DefaultConfig returns the production scoring parameters.
func DefaultConfig() Config {
	return Config{
		DefaultCenterRatio:  0.8,
		MaxDirectionChanges: 100,
		CopyingThreshold:    5,
	}
}

// #endregion config

// #region types

// LabelInterval is one closed gaze or head-pose interval.
type LabelInterval = segment.Interval[label.Label]

// Streams is the closed output of one analysis session.
type Streams struct {
	Gaze      []LabelInterval
	Head      []LabelInterval
	Blinks    []blink.Event
	Anomalies []anomaly.Episode
}

// ScoreResult holds the eye-behaviour scores for one video. Scores are
// rounded to one decimal.
type ScoreResult struct {
	ConcentrationScore     float64 `json:"concentration_score"`
	StabilityScore         float64 `json:"stability_score"`
	BlinkScore             float64 `json:"blink_score"`
	TotalEyeScore          float64 `json:"total_eye_score"`
	BlinkCount             int     `json:"blink_count"`
	BlinksPerMinute        float64 `json:"blinks_per_minute"`
	CenterTimeRatio        float64 `json:"center_time_ratio"` // percent
	DirectionChanges       int     `json:"direction_changes"`
	ViolationCount         int     `json:"violation_count"`
	MultiFaceDetected      bool    `json:"multi_face_detected"`
	SuspectedCopying       bool    `json:"suspected_copying"`
	SuspectedImpersonation bool    `json:"suspected_impersonation"`
	TotalDuration          float64 `json:"total_duration"`
}

// #endregion types
