package scoring

import (
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
)

// #region types

// Band names the rubric row an evaluation fell into.
type Band string

const (
	BandHigh      Band = "high"
	BandMedium    Band = "medium"
	BandLow       Band = "low"
	BandUndefined Band = "undefined" // center ratio in [0.2, 0.4): no rubric row
	BandNoData    Band = "no_data"
)

// Evaluation is one rubric-based grade.
type Evaluation struct {
	Category string  `json:"category"`
	Score    int     `json:"score"`
	Band     Band    `json:"band"`
	Ratio    float64 `json:"ratio"` // center ratio or blinks per minute
	Comment  string  `json:"comments"`
}

const (
	CategoryEyeContact    = "interview_attitude"
	CategoryCommunication = "communication"

	// minCenterDuration credits single-frame center intervals with one
	// frame's worth of time.
	minCenterDuration = 0.2
)

// #endregion types

// #region eye-contact

// EvaluateEyeContact grades how much of the answer was spent looking at the
// screen. Total time is the latest gaze end time. The rubric has no row for
// ratios in [0.2, 0.4); those return BandUndefined with score 0.
func EvaluateEyeContact(gaze []LabelInterval) (Evaluation, error) {
	ev := Evaluation{Category: CategoryEyeContact}
	if len(gaze) == 0 {
		ev.Band = BandNoData
		ev.Comment = "no gaze data"
		return ev, ErrEmptyStream
	}

	var total, center float64
	for _, iv := range gaze {
		if iv.End > total {
			total = iv.End
		}
		if iv.Value == label.Center {
			d := iv.Duration()
			if d < minCenterDuration {
				d = minCenterDuration
			}
			center += d
		}
	}
	var ratio float64
	if total > 0 {
		ratio = center / total
	}
	ev.Ratio = Round(ratio, 3)

	switch {
	case ratio >= 0.6:
		ev.Score, ev.Band = 40, BandHigh
		ev.Comment = "gaze on screen for at least 60% of the answer; eye contact was very appropriate"
	case ratio >= 0.4:
		ev.Score, ev.Band = 20, BandMedium
		ev.Comment = "gaze on screen for 40-60% of the answer; eye contact was slightly short"
	case ratio < 0.2:
		ev.Score, ev.Band = 0, BandLow
		ev.Comment = "gaze on screen for under 20% of the answer; eye contact was not maintained"
	default:
		ev.Score, ev.Band = 0, BandUndefined
		ev.Comment = "gaze on screen for 20-40% of the answer; outside the rubric"
	}
	return ev, nil
}

// #endregion eye-contact

// #region communication

// EvaluateCommunication grades the blink rate, using the latest blink time
// as the clip length.
func EvaluateCommunication(blinks []blink.Event) (Evaluation, error) {
	ev := Evaluation{Category: CategoryCommunication}
	if len(blinks) == 0 {
		ev.Band = BandNoData
		ev.Comment = "no blink data"
		return ev, ErrEmptyStream
	}

	var last float64
	for _, b := range blinks {
		if b.Time > last {
			last = b.Time
		}
	}
	rate := BlinkRate(len(blinks), last)
	ev.Ratio = Round(rate, 1)

	switch {
	case rate <= 20:
		ev.Score, ev.Band = 10, BandHigh
		ev.Comment = "natural blink rate; comes across as friendly and relaxed"
	case rate <= 30:
		ev.Score, ev.Band = 4, BandMedium
		ev.Comment = "elevated blink rate; may read as tense or distracted"
	default:
		ev.Score, ev.Band = 2, BandLow
		ev.Comment = "very high blink rate; likely to read as very tense or distracted"
	}
	return ev, nil
}

// #endregion communication
