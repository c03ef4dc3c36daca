// Package calibration builds and maintains the per-subject baseline that
// the blink, gaze and head-pose classifiers measure against.
package calibration

import (
	"log/slog"
	"math"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// #region accumulator

type mean struct {
	n int
	v float64
}

func (m *mean) add(x float64) {
	m.n++
	m.v += (x - m.v) / float64(m.n)
}

type mean2 struct{ x, y mean }

func (m *mean2) add(p landmark.Vec2) {
	m.x.add(p.X)
	m.y.add(p.Y)
}

func (m mean2) vec() landmark.Vec2 { return landmark.Vec2{X: m.x.v, Y: m.y.v} }

// accumulator keeps one running mean per baseline field. A field is set once
// it has absorbed at least one sample.
type accumulator struct {
	nose, leftIris, rightIris, neck    mean2
	leftRatio, rightRatio              mean
	leftHeight, rightHeight, faceWidth mean
	samples                            int
}

func (a *accumulator) add(lm []landmark.Point) {
	a.samples++
	a.nose.add(landmark.Nose(lm))
	a.leftIris.add(landmark.Iris(lm, landmark.LeftEye))
	a.rightIris.add(landmark.Iris(lm, landmark.RightEye))
	if r, ok := landmark.IrisRatio(lm, landmark.LeftEye); ok {
		a.leftRatio.add(r)
	}
	if r, ok := landmark.IrisRatio(lm, landmark.RightEye); ok {
		a.rightRatio.add(r)
	}
	a.leftHeight.add(landmark.EyeHeight(lm, landmark.LeftEye))
	a.rightHeight.add(landmark.EyeHeight(lm, landmark.RightEye))
	a.faceWidth.add(landmark.FaceWidth(lm))
	a.neck.add(landmark.NeckPosition(lm))
}

func (a *accumulator) complete() bool {
	for _, n := range []int{
		a.nose.x.n, a.leftIris.x.n, a.rightIris.x.n, a.neck.x.n,
		a.leftRatio.n, a.rightRatio.n,
		a.leftHeight.n, a.rightHeight.n, a.faceWidth.n,
	} {
		if n == 0 {
			return false
		}
	}
	return true
}

func (a *accumulator) baseline() Baseline {
	return Baseline{
		Nose:           a.nose.vec(),
		LeftIris:       a.leftIris.vec(),
		RightIris:      a.rightIris.vec(),
		LeftIrisRatio:  a.leftRatio.v,
		RightIrisRatio: a.rightRatio.v,
		LeftEyeHeight:  a.leftHeight.v,
		RightEyeHeight: a.rightHeight.v,
		FaceWidth:      a.faceWidth.v,
		Neck:           a.neck.vec(),
		Samples:        a.samples,
	}
}

// #endregion accumulator

// #region engine

// Engine runs the calibration state machine for one session.
type Engine struct {
	config     Config
	log        *slog.Logger
	started    bool
	start      float64
	calibrated bool
	acc        accumulator
	baseline   Baseline
	movement   int
	records    []Record
}

// NewEngine creates an Engine in the not-ready state. log may be nil.
func NewEngine(config Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{config: config, log: log}
}

// Start opens a fresh calibration window at t, discarding any baseline.
func (e *Engine) Start(t float64) {
	e.started = true
	e.start = t
	e.calibrated = false
	e.acc = accumulator{}
	e.baseline = Baseline{}
	e.movement = 0
}

// Update feeds one single-face frame with a mesh and returns the resulting
// status. Samples only count toward the baseline while the subject is
// looking forward; looking away mid-window restarts the window.
func (e *Engine) Update(s landmark.FrameSample) Status {
	t := s.Timestamp
	lm := s.Landmarks

	if !e.calibrated {
		if !e.started {
			if !e.LookingForward(lm) {
				return StatusNotReady
			}
			e.Start(t)
			e.log.Debug("calibration started", "t", t)
			return StatusCalibrating
		}

		if t-e.start < e.config.Window {
			if !e.LookingForward(lm) {
				e.Start(t)
				return StatusNotReady
			}
			e.acc.add(lm)
			return StatusCalibrating
		}

		if !e.acc.complete() {
			e.Start(t)
			return StatusRecalibrating
		}
		e.baseline = e.acc.baseline()
		e.calibrated = true
		e.records = append(e.records, Record{Start: e.start, End: t})
		e.log.Info("calibration complete", "start", e.start, "end", t, "samples", e.baseline.Samples)
		return StatusCalibrated
	}

	if e.drifted(lm) {
		e.log.Info("recalibrating after sustained movement", "t", t)
		e.Start(t)
		return StatusRecalibrating
	}
	return StatusCalibrated
}

// LookingForward reports whether the face is frontal and both irises are
// near the frame center.
func (e *Engine) LookingForward(lm []landmark.Point) bool {
	if !landmark.IsSymmetric(lm, e.config.SymmetryMaxRatio) {
		return false
	}
	l := landmark.Iris(lm, landmark.LeftEye)
	r := landmark.Iris(lm, landmark.RightEye)
	x := (l.X + r.X) / 2
	y := (l.Y + r.Y) / 2
	return math.Abs(x-0.5) < e.config.IrisWindowX && math.Abs(y-0.5) < e.config.IrisWindowY
}

// drifted applies the movement hysteresis: each frame whose face width or
// neck position moved past tolerance raises the counter, every other frame
// lowers it, and reaching MaxMovementCount reports drift.
func (e *Engine) drifted(lm []landmark.Point) bool {
	b := e.baseline
	moved := false
	if b.FaceWidth > 0 {
		if math.Abs(landmark.FaceWidth(lm)-b.FaceWidth)/b.FaceWidth > e.config.FaceWidthTolerance {
			moved = true
		}
	}
	if math.Abs(landmark.NeckPosition(lm).X-b.Neck.X) > e.config.NeckShiftTolerance {
		moved = true
	}
	if !moved {
		if e.movement > 0 {
			e.movement--
		}
		return false
	}
	e.movement++
	return e.movement >= e.config.MaxMovementCount
}

// #endregion engine

// #region query

// IsCalibrated reports whether a baseline is in effect.
func (e *Engine) IsCalibrated() bool { return e.calibrated }

// Baseline returns the current baseline, or ErrMissingBaseline.
func (e *Engine) Baseline() (Baseline, error) {
	if !e.calibrated {
		return Baseline{}, ErrMissingBaseline
	}
	return e.baseline, nil
}

// MovementCount returns the drift counter.
func (e *Engine) MovementCount() int { return e.movement }

// Recalibrations returns every completed calibration window in order.
func (e *Engine) Recalibrations() []Record {
	out := make([]Record, len(e.records))
	copy(out, e.records)
	return out
}

// #endregion query
