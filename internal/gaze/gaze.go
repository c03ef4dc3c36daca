// Package gaze classifies eye direction relative to the calibrated iris
// position and eye opening.
package gaze

import (
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/calibration"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// #region config

// Config holds gaze thresholds.
type Config struct {
	HorizontalShift float64 // mean relative iris-ratio change for left/right
	UpRatio         float64 // eye height / baseline above which gaze is up
	DownRatio       float64 // eye height / baseline below which down is pending
	MinDownDuration float64 // seconds a narrowed eye must persist to count as down
}

// DefaultConfig returns the production gaze parameters.
func DefaultConfig() Config {
	return Config{
		HorizontalShift: 0.15,
		UpRatio:         1.15,
		DownRatio:       0.85,
		MinDownDuration: 1.0,
	}
}

// #endregion config

// #region classifier

// Classifier labels calibrated, non-blink frames. It keeps the start time of
// a pending downward glance.
type Classifier struct {
	config    Config
	downSince float64
	pending   bool
}

// NewClassifier creates a Classifier.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify returns Center or a composition of left/right and up/down.
// Downward gaze only fires after the eye has stayed narrowed for
// MinDownDuration, so blinks and brief squints do not register.
func (c *Classifier) Classify(s landmark.FrameSample, b calibration.Baseline) (label.Label, error) {
	ratio, err := b.HeightRatio(s.Landmarks)
	if err != nil {
		return label.Center, err
	}
	return label.Compose(c.horizontal(s.Landmarks, b), c.vertical(s.Timestamp, ratio)), nil
}

func (c *Classifier) horizontal(lm []landmark.Point, b calibration.Baseline) label.Label {
	if b.LeftIrisRatio == 0 || b.RightIrisRatio == 0 {
		return ""
	}
	l, lok := landmark.IrisRatio(lm, landmark.LeftEye)
	r, rok := landmark.IrisRatio(lm, landmark.RightEye)
	if !lok || !rok {
		return ""
	}
	change := ((l-b.LeftIrisRatio)/b.LeftIrisRatio + (r-b.RightIrisRatio)/b.RightIrisRatio) / 2
	switch {
	case change < -c.config.HorizontalShift:
		return label.Left
	case change > c.config.HorizontalShift:
		return label.Right
	}
	return ""
}

func (c *Classifier) vertical(t, ratio float64) label.Label {
	switch {
	case ratio > c.config.UpRatio:
		c.ResetDown()
		return label.Up
	case ratio < c.config.DownRatio:
		if !c.pending {
			c.pending = true
			c.downSince = t
			return ""
		}
		if t-c.downSince >= c.config.MinDownDuration {
			return label.Down
		}
		return ""
	}
	c.ResetDown()
	return ""
}

// ResetDown clears a pending downward glance. Called when a blink is
// detected so the closure is not mistaken for looking down.
func (c *Classifier) ResetDown() {
	c.pending = false
	c.downSince = 0
}

// #endregion classifier
