package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
)

// #region helpers

func iv(start, end float64, l label.Label) LabelInterval {
	return LabelInterval{Start: start, End: end, Value: l}
}

func blinks(n int, span float64) []blink.Event {
	out := make([]blink.Event, n)
	for i := range out {
		out[i] = blink.Event{Time: span * float64(i+1) / float64(n), Index: i + 1}
	}
	return out
}

// #endregion helpers

// #region score-tests

func TestScore_ConcentrationScenario(t *testing.T) {
	s := Streams{Gaze: []LabelInterval{
		iv(0, 10, label.Center),
		iv(10, 12, label.Left),
		iv(12, 60, label.Center),
	}}
	r := Score(s, 60, DefaultConfig())
	if r.ConcentrationScore != 14.5 {
		t.Errorf("expected concentration 14.5, got %v", r.ConcentrationScore)
	}
	if r.CenterTimeRatio != 96.7 {
		t.Errorf("expected center ratio 96.7%%, got %v", r.CenterTimeRatio)
	}
	if r.DirectionChanges != 3 {
		t.Errorf("expected 3 direction changes, got %d", r.DirectionChanges)
	}
	if r.StabilityScore < 14.5 || r.StabilityScore > 14.6 {
		t.Errorf("expected stability ~14.55, got %v", r.StabilityScore)
	}
}

func TestScore_EmptyGazeUsesDefaultRatio(t *testing.T) {
	r := Score(Streams{}, 60, DefaultConfig())
	if r.ConcentrationScore != 12 {
		t.Errorf("expected 15*0.8=12, got %v", r.ConcentrationScore)
	}
	if r.StabilityScore != 15 {
		t.Errorf("expected full stability with no changes, got %v", r.StabilityScore)
	}
}

func TestScore_TwentyBlinksPerMinute(t *testing.T) {
	r := Score(Streams{Blinks: blinks(20, 60)}, 60, DefaultConfig())
	if r.BlinksPerMinute != 20 || r.BlinkScore != 10 {
		t.Errorf("expected 20/min scoring 10, got %v / %v", r.BlinksPerMinute, r.BlinkScore)
	}
}

func TestScore_ZeroDurationUsesOneMinute(t *testing.T) {
	r := Score(Streams{Blinks: blinks(12, 1)}, 0, DefaultConfig())
	if r.BlinksPerMinute != 12 {
		t.Errorf("expected 12/min with 1-minute floor, got %v", r.BlinksPerMinute)
	}
}

func TestScore_TotalIsBounded(t *testing.T) {
	s := Streams{Gaze: []LabelInterval{iv(0, 60, label.Center)}, Blinks: blinks(17, 60)}
	r := Score(s, 60, DefaultConfig())
	sum := r.ConcentrationScore + r.StabilityScore + r.BlinkScore
	if r.TotalEyeScore > 40 || math.Abs(r.TotalEyeScore-sum) > 1e-9 {
		t.Errorf("unexpected total %v from %+v", r.TotalEyeScore, r)
	}
}

func TestBlinkScore_Bands(t *testing.T) {
	cases := []struct {
		rate, want float64
	}{
		{15, 10}, {17.5, 10}, {20, 10},
		{10, 8}, {12, 8}, {25, 8},
		{5, 3.75}, {30, 3.75}, {40, 0}, {0, 1.25},
	}
	for _, c := range cases {
		if got := BlinkScore(c.rate); got != c.want {
			t.Errorf("BlinkScore(%v): expected %v, got %v", c.rate, c.want, got)
		}
	}
}

func TestCenterRatio_Empty(t *testing.T) {
	if _, err := CenterRatio(nil); !errors.Is(err, ErrEmptyStream) {
		t.Errorf("expected ErrEmptyStream, got %v", err)
	}
	if _, err := CenterRatio([]LabelInterval{iv(3, 3, label.Center)}); !errors.Is(err, ErrEmptyStream) {
		t.Errorf("expected ErrEmptyStream for zero-length gaze, got %v", err)
	}
}

// #endregion score-tests

// #region cheating-tests

func TestDetectCheating_MultiFaceFlagsImpersonation(t *testing.T) {
	eps := []anomaly.Episode{{Start: 4, End: 4.2, Reason: anomaly.MultipleFaces, FaceCount: 2, Index: 1}}
	r := DetectCheating(nil, eps, DefaultConfig())
	if !r.SuspectedImpersonation {
		t.Error("expected impersonation for multi-face episode")
	}
	if r.SuspectedCopying || r.ViolationCount != 1 {
		t.Errorf("expected 1 violation without copying, got %+v", r)
	}

	res := Score(Streams{Anomalies: eps}, 10, DefaultConfig())
	if !res.SuspectedImpersonation || !res.MultiFaceDetected {
		t.Error("expected ScoreResult to carry impersonation flag")
	}
}

func TestDetectCheating_CopyingThreshold(t *testing.T) {
	head := []LabelInterval{
		iv(0, 1, label.Center),
		iv(1, 2, label.Left),
		iv(2, 3, label.Center),
		iv(3, 4, "right down"),
		iv(4, 5, label.Up),
	}
	eps := []anomaly.Episode{{Reason: anomaly.NoFace}}

	r := DetectCheating(head, eps, DefaultConfig())
	if r.ViolationCount != 4 || r.SuspectedCopying {
		t.Errorf("expected 4 violations below threshold, got %+v", r)
	}

	eps = append(eps, anomaly.Episode{Reason: anomaly.NoFace})
	r = DetectCheating(head, eps, DefaultConfig())
	if r.ViolationCount != 5 || !r.SuspectedCopying {
		t.Errorf("expected 5 violations suspected, got %+v", r)
	}
	if r.Violations[0].Kind != string(anomaly.NoFace) || r.Violations[4].Comment != "head direction: up" {
		t.Errorf("expected anomalies before head violations, got %+v", r.Violations)
	}
	for i, v := range r.Violations {
		if v.Index != i+1 {
			t.Errorf("violation %d: expected index %d, got %d", i, i+1, v.Index)
		}
	}
}

func TestDetectCheating_CleanSummary(t *testing.T) {
	r := DetectCheating([]LabelInterval{iv(0, 10, label.Center)}, nil, DefaultConfig())
	if r.ViolationCount != 0 || r.Summary != "no suspicious behaviour detected" {
		t.Errorf("unexpected clean report: %+v", r)
	}
}

// #endregion cheating-tests

// #region evaluation-tests

func TestEvaluateEyeContact_Bands(t *testing.T) {
	cases := []struct {
		center float64
		band   Band
		score  int
	}{
		{80, BandHigh, 40},
		{100, BandHigh, 40},
		{50, BandMedium, 20},
		{30, BandUndefined, 0},
		{10, BandLow, 0},
	}
	for _, c := range cases {
		gaze := []LabelInterval{iv(0, c.center, label.Center)}
		if c.center < 100 {
			gaze = append(gaze, iv(c.center, 100, label.Left))
		}
		ev, err := EvaluateEyeContact(gaze)
		if err != nil {
			t.Fatalf("EvaluateEyeContact: %v", err)
		}
		if ev.Band != c.band || ev.Score != c.score {
			t.Errorf("center %v%%: expected %s/%d, got %s/%d", c.center, c.band, c.score, ev.Band, ev.Score)
		}
	}
}

func TestEvaluateEyeContact_ShortCenterIntervalsCountOneFrame(t *testing.T) {
	gaze := []LabelInterval{iv(1, 1, label.Center), iv(1, 2, label.Left)}
	ev, _ := EvaluateEyeContact(gaze)
	if ev.Ratio != 0.1 {
		t.Errorf("expected 0.2/2 = 0.1, got %v", ev.Ratio)
	}
}

func TestEvaluateEyeContact_Empty(t *testing.T) {
	ev, err := EvaluateEyeContact(nil)
	if !errors.Is(err, ErrEmptyStream) || ev.Band != BandNoData {
		t.Errorf("expected no_data with ErrEmptyStream, got %+v %v", ev, err)
	}
}

func TestEvaluateCommunication(t *testing.T) {
	cases := []struct {
		n     int
		score int
	}{
		{20, 10}, {25, 4}, {40, 2},
	}
	for _, c := range cases {
		ev, err := EvaluateCommunication(blinks(c.n, 60))
		if err != nil {
			t.Fatalf("EvaluateCommunication: %v", err)
		}
		if ev.Score != c.score {
			t.Errorf("%d blinks/min: expected %d, got %d", c.n, c.score, ev.Score)
		}
	}
	if _, err := EvaluateCommunication(nil); !errors.Is(err, ErrEmptyStream) {
		t.Errorf("expected ErrEmptyStream, got %v", err)
	}
}

// #endregion evaluation-tests
