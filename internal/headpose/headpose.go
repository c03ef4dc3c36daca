// Package headpose classifies head direction from nose displacement
// relative to the calibrated baseline.
package headpose

import (
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/calibration"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// Config holds head-pose thresholds in normalized image units.
type Config struct {
	HorizontalShift  float64 // nose x displacement for left/right
	VerticalShift    float64 // nose y displacement for up/down
	SymmetryMaxRatio float64 // horizontal turns require asymmetry beyond this
}

// DefaultConfig returns the production head-pose parameters.
func DefaultConfig() Config {
	return Config{
		HorizontalShift:  0.035,
		VerticalShift:    0.030,
		SymmetryMaxRatio: 0.1,
	}
}

// Classifier is stateless apart from its configuration.
type Classifier struct {
	config Config
}

// NewClassifier creates a Classifier.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify maps the calibration status and nose displacement to a label.
// Uncalibrated statuses map to their status label. A horizontal turn only
// counts when the face is also asymmetric, so a sideways lean is ignored.
func (c *Classifier) Classify(s landmark.FrameSample, b calibration.Baseline, status calibration.Status) label.Label {
	switch status {
	case calibration.StatusNotReady:
		return label.NotReady
	case calibration.StatusCalibrating:
		return label.Calibrating
	case calibration.StatusRecalibrating:
		return label.Recalibrating
	}

	nose := landmark.Nose(s.Landmarks)
	dx := nose.X - b.Nose.X
	dy := nose.Y - b.Nose.Y

	var h, v label.Label
	if !landmark.IsSymmetric(s.Landmarks, c.config.SymmetryMaxRatio) {
		switch {
		case dx < -c.config.HorizontalShift:
			h = label.Left
		case dx > c.config.HorizontalShift:
			h = label.Right
		}
	}
	switch {
	case dy < -c.config.VerticalShift:
		v = label.Up
	case dy > c.config.VerticalShift:
		v = label.Down
	}
	return label.Compose(h, v)
}
