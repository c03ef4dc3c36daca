package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark/synth"
)

// #region fixture-types

// Fixture is a scripted video: a frame sequence plus the outcome it must
// produce.
type Fixture struct {
	Description string          `json:"description"`
	Duration    float64         `json:"duration"`
	Config      *FixtureConfig  `json:"config,omitempty"`
	Frames      []FixtureFrame  `json:"frames"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureFrame describes one frame, or Repeat frames Step seconds apart.
// Face holds synth.Face fields that override the neutral pose.
type FixtureFrame struct {
	T         float64          `json:"t"`
	Repeat    int              `json:"repeat,omitempty"`
	Step      float64          `json:"step,omitempty"`
	FaceCount *int             `json:"face_count,omitempty"` // default 1
	NoMesh    bool             `json:"no_mesh,omitempty"`
	Face      json.RawMessage  `json:"face,omitempty"`
	Landmarks []landmark.Point `json:"landmarks,omitempty"`
}

// FixtureConfig overrides selected thresholds; zero fields keep defaults.
type FixtureConfig struct {
	CalibrationWindow float64 `json:"calibration_window"`
	MaxMovementCount  int     `json:"max_movement_count"`
	MaxBlinkDuration  float64 `json:"max_blink_duration"`
	MinDownDuration   float64 `json:"min_down_duration"`
	CopyingThreshold  int     `json:"copying_threshold"`
}

// FixtureExpected lists the checks to run. Nil and empty fields are not
// checked.
type FixtureExpected struct {
	BlinkCount             *int      `json:"blink_count,omitempty"`
	BlinkTimes             []float64 `json:"blink_times,omitempty"`
	GazeLabels             []string  `json:"gaze_labels,omitempty"`
	HeadLabels             []string  `json:"head_labels,omitempty"`
	AnomalyReasons         []string  `json:"anomaly_reasons,omitempty"`
	Recalibrations         *int      `json:"recalibrations,omitempty"`
	ConcentrationScore     *float64  `json:"concentration_score,omitempty"`
	BlinkScore             *float64  `json:"blink_score,omitempty"`
	SuspectedCopying       *bool     `json:"suspected_copying,omitempty"`
	SuspectedImpersonation *bool     `json:"suspected_impersonation,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToConfig applies the overrides to DefaultConfig.
func (fc *FixtureConfig) ToConfig() Config {
	c := DefaultConfig()
	if fc == nil {
		return c
	}
	if fc.CalibrationWindow > 0 {
		c.Calibration.Window = fc.CalibrationWindow
	}
	if fc.MaxMovementCount > 0 {
		c.Calibration.MaxMovementCount = fc.MaxMovementCount
	}
	if fc.MaxBlinkDuration > 0 {
		c.Blink.MaxClosure = fc.MaxBlinkDuration
	}
	if fc.MinDownDuration > 0 {
		c.Gaze.MinDownDuration = fc.MinDownDuration
	}
	if fc.CopyingThreshold > 0 {
		c.Scoring.CopyingThreshold = fc.CopyingThreshold
	}
	return c
}

// ToSamples expands the frame into one or more samples.
func (ff *FixtureFrame) ToSamples() ([]landmark.FrameSample, error) {
	count := 1
	if ff.FaceCount != nil {
		count = *ff.FaceCount
	}

	var lm []landmark.Point
	switch {
	case ff.NoMesh:
	case len(ff.Landmarks) > 0:
		lm = ff.Landmarks
	default:
		face := synth.Neutral()
		if len(ff.Face) > 0 {
			if err := json.Unmarshal(ff.Face, &face); err != nil {
				return nil, fmt.Errorf("parse face at t=%v: %w", ff.T, err)
			}
		}
		lm = face.Landmarks()
	}

	n := ff.Repeat
	if n < 1 {
		n = 1
	}
	out := make([]landmark.FrameSample, n)
	for i := range out {
		out[i] = landmark.FrameSample{
			Timestamp: ff.T + float64(i)*ff.Step,
			FaceCount: count,
			Landmarks: lm,
		}
	}
	return out, nil
}

// Samples expands every frame of the fixture in order.
func (f *Fixture) Samples() ([]landmark.FrameSample, error) {
	var out []landmark.FrameSample
	for i := range f.Frames {
		s, err := f.Frames[i].ToSamples()
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return out, nil
}

// #endregion fixture-loader
