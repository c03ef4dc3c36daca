package session

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// #region replay

// Replay runs samples through a fresh session and finishes it at end.
func Replay(samples []landmark.FrameSample, config Config, end float64, log *slog.Logger) Result {
	s := New("", config, log)
	for _, f := range samples {
		s.Process(f)
	}
	return s.Finish(end)
}

// ReplayFixture expands and replays a fixture.
func ReplayFixture(f *Fixture, log *slog.Logger) (Result, error) {
	samples, err := f.Samples()
	if err != nil {
		return Result{}, err
	}
	return Replay(samples, f.Config.ToConfig(), f.Duration, log), nil
}

// #endregion replay

// #region compare

// Check is one expected-versus-replayed comparison.
type Check struct {
	Field    string
	Expected string
	Replayed string
	Match    bool
}

// Compare evaluates every expectation the fixture sets.
func Compare(r Result, exp FixtureExpected) []Check {
	var checks []Check
	add := func(field string, want, got any, match bool) {
		checks = append(checks, Check{
			Field:    field,
			Expected: fmt.Sprint(want),
			Replayed: fmt.Sprint(got),
			Match:    match,
		})
	}

	if exp.BlinkCount != nil {
		add("blink_count", *exp.BlinkCount, len(r.Blinks), *exp.BlinkCount == len(r.Blinks))
	}
	if exp.BlinkTimes != nil {
		got := make([]float64, len(r.Blinks))
		for i, b := range r.Blinks {
			got[i] = math.Round(b.Time*100) / 100
		}
		add("blink_times", exp.BlinkTimes, got, floatsEqual(exp.BlinkTimes, got))
	}
	if exp.GazeLabels != nil {
		got := make([]string, len(r.Gaze))
		for i, iv := range r.Gaze {
			got[i] = string(iv.Value)
		}
		add("gaze_labels", strings.Join(exp.GazeLabels, ","), strings.Join(got, ","), slices.Equal(exp.GazeLabels, got))
	}
	if exp.HeadLabels != nil {
		got := make([]string, len(r.Head))
		for i, iv := range r.Head {
			got[i] = string(iv.Value)
		}
		add("head_labels", strings.Join(exp.HeadLabels, ","), strings.Join(got, ","), slices.Equal(exp.HeadLabels, got))
	}
	if exp.AnomalyReasons != nil {
		got := make([]string, len(r.Anomalies))
		for i, ep := range r.Anomalies {
			got[i] = string(ep.Reason)
		}
		add("anomaly_reasons", strings.Join(exp.AnomalyReasons, ","), strings.Join(got, ","), slices.Equal(exp.AnomalyReasons, got))
	}
	if exp.Recalibrations != nil {
		add("recalibrations", *exp.Recalibrations, len(r.Recalibrations), *exp.Recalibrations == len(r.Recalibrations))
	}
	if exp.ConcentrationScore != nil {
		got := r.Score.ConcentrationScore
		add("concentration_score", *exp.ConcentrationScore, got, math.Abs(*exp.ConcentrationScore-got) < 1e-9)
	}
	if exp.BlinkScore != nil {
		got := r.Score.BlinkScore
		add("blink_score", *exp.BlinkScore, got, math.Abs(*exp.BlinkScore-got) < 1e-9)
	}
	if exp.SuspectedCopying != nil {
		got := r.Cheating.SuspectedCopying
		add("suspected_copying", *exp.SuspectedCopying, got, *exp.SuspectedCopying == got)
	}
	if exp.SuspectedImpersonation != nil {
		got := r.Cheating.SuspectedImpersonation
		add("suspected_impersonation", *exp.SuspectedImpersonation, got, *exp.SuspectedImpersonation == got)
	}
	return checks
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

// #endregion compare
