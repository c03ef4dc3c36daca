// Package blink detects short eye closures against the calibrated eye
// height.
package blink

import (
	"log/slog"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/calibration"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// #region config

// Config holds blink thresholds.
type Config struct {
	OpenEAR           float64 // EAR above which the previous frame counts as open
	ClosedHeightRatio float64 // eye height / baseline below which the eye is closed
	MaxClosure        float64 // seconds; longer closures are not blinks
	HistorySize       int     // EAR samples retained
}

// DefaultConfig returns the production blink parameters.
func DefaultConfig() Config {
	return Config{
		OpenEAR:           0.25,
		ClosedHeightRatio: 0.30,
		MaxClosure:        0.3,
		HistorySize:       5,
	}
}

// #endregion config

// #region detector

// Event is one detected blink. Time is the last closed frame before the eye
// reopened. Index starts at 1.
type Event struct {
	Time  float64 `json:"blink_time"`
	Index int     `json:"blink_index"`
}

// Detector tracks a single open→closed→open transition at a time.
type Detector struct {
	config     Config
	log        *slog.Logger
	ear        []float64
	closing    bool
	closedAt   float64
	lastClosed float64
	events     []Event
}

// NewDetector creates a Detector. log may be nil.
func NewDetector(config Config, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{config: config, log: log}
}

// Classify consumes one calibrated frame and reports whether it completes a
// blink. A closure only starts when the previous frame's EAR was open, and it
// only counts as a blink when the eye reopens within MaxClosure. Longer
// closures are dropped silently.
func (d *Detector) Classify(s landmark.FrameSample, b calibration.Baseline) (bool, error) {
	ratio, err := b.HeightRatio(s.Landmarks)
	if err != nil {
		return false, err
	}
	d.push(landmark.MeanEyeAspectRatio(s.Landmarks))

	t := s.Timestamp
	closed := ratio < d.config.ClosedHeightRatio
	wasOpen := len(d.ear) >= 2 && d.ear[len(d.ear)-2] > d.config.OpenEAR

	if d.closing {
		elapsed := t - d.closedAt
		switch {
		case !closed && elapsed < d.config.MaxClosure:
			d.closing = false
			ev := Event{Time: d.lastClosed, Index: len(d.events) + 1}
			d.events = append(d.events, ev)
			d.log.Debug("blink", "t", ev.Time, "index", ev.Index)
			return true, nil
		case elapsed >= d.config.MaxClosure:
			d.closing = false
		default:
			d.lastClosed = t
		}
		return false, nil
	}

	if closed && wasOpen {
		d.closing = true
		d.closedAt = t
		d.lastClosed = t
	}
	return false, nil
}

func (d *Detector) push(ear float64) {
	d.ear = append(d.ear, ear)
	if n := d.config.HistorySize; n > 0 && len(d.ear) > n {
		d.ear = d.ear[len(d.ear)-n:]
	}
}

// Events returns every blink detected so far.
func (d *Detector) Events() []Event {
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// Count returns the number of blinks detected.
func (d *Detector) Count() int { return len(d.events) }

// #endregion detector
