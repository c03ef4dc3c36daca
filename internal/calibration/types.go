package calibration

import (
	"errors"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// ErrMissingBaseline is returned when a baseline-relative measurement is
// requested before calibration has completed.
var ErrMissingBaseline = errors.New("calibration baseline missing")

// #region config

// Config holds calibration and drift thresholds.
type Config struct {
	Window             float64 // seconds of forward-facing samples per baseline
	SymmetryMaxRatio   float64 // nose offset / eye distance for a frontal face
	IrisWindowX        float64 // max |mean iris x - 0.5| while looking forward
	IrisWindowY        float64 // max |mean iris y - 0.5| while looking forward
	FaceWidthTolerance float64 // relative face-width change counted as movement
	NeckShiftTolerance float64 // absolute neck x shift, in normalized frame widths, counted as movement
	MaxMovementCount   int     // movement counter level that forces recalibration
}

// DefaultConfig returns the production calibration parameters.
func DefaultConfig() Config {
	return Config{
		Window:             1.0,
		SymmetryMaxRatio:   0.1,
		IrisWindowX:        0.24,
		IrisWindowY:        0.30,
		FaceWidthTolerance: 0.15,
		NeckShiftTolerance: 0.1,
		MaxMovementCount:   5,
	}
}

// #endregion config

// #region status

// Status is the calibration state after a frame.
type Status int

const (
	StatusNotReady Status = iota
	StatusCalibrating
	StatusRecalibrating
	StatusCalibrated
)

func (s Status) String() string {
	switch s {
	case StatusNotReady:
		return "not_ready"
	case StatusCalibrating:
		return "calibrating"
	case StatusRecalibrating:
		return "recalibrating"
	case StatusCalibrated:
		return "calibrated"
	}
	return "unknown"
}

// #endregion status

// #region baseline

// Baseline is the per-subject reference captured while looking forward.
// It is replaced as a whole on recalibration and never mutated in place.
type Baseline struct {
	Nose           landmark.Vec2 `json:"nose"`
	LeftIris       landmark.Vec2 `json:"left_iris"`
	RightIris      landmark.Vec2 `json:"right_iris"`
	LeftIrisRatio  float64       `json:"left_iris_ratio"`
	RightIrisRatio float64       `json:"right_iris_ratio"`
	LeftEyeHeight  float64       `json:"left_eye_height"`
	RightEyeHeight float64       `json:"right_eye_height"`
	FaceWidth      float64       `json:"face_width"`
	Neck           landmark.Vec2 `json:"neck"`
	Samples        int           `json:"samples"`
}

// HeightRatio is the mean of both current eye heights divided by their
// baseline heights.
func (b Baseline) HeightRatio(lm []landmark.Point) (float64, error) {
	if b.LeftEyeHeight <= 0 || b.RightEyeHeight <= 0 {
		return 0, ErrMissingBaseline
	}
	l := landmark.EyeHeight(lm, landmark.LeftEye) / b.LeftEyeHeight
	r := landmark.EyeHeight(lm, landmark.RightEye) / b.RightEyeHeight
	return (l + r) / 2, nil
}

// Record marks one completed (re)calibration window.
type Record struct {
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// #endregion baseline
