// Package scoring turns closed gaze, head, blink and anomaly streams into
// bounded scores and cheating flags. Every function here is pure.
package scoring

import (
	"errors"
	"math"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
)

const (
	maxConcentration = 15.0
	maxStability     = 15.0
	maxBlink         = 10.0
)

// #region score

// Score computes the eye-behaviour scores. totalDuration is the video length
// in seconds and only feeds the blink rate.
func Score(s Streams, totalDuration float64, config Config) ScoreResult {
	ratio, err := CenterRatio(s.Gaze)
	if errors.Is(err, ErrEmptyStream) {
		ratio = config.DefaultCenterRatio
	}
	concentration := math.Min(maxConcentration, maxConcentration*ratio)

	changes := len(s.Gaze)
	stability := math.Min(maxStability, maxStability*math.Max(0, 1-float64(changes)/config.MaxDirectionChanges))

	rate := BlinkRate(len(s.Blinks), totalDuration)
	blinkScore := BlinkScore(rate)

	cheat := DetectCheating(s.Head, s.Anomalies, config)

	concentration = Round(concentration, 1)
	stability = Round(stability, 1)
	blinkScore = Round(blinkScore, 1)

	return ScoreResult{
		ConcentrationScore:     concentration,
		StabilityScore:         stability,
		BlinkScore:             blinkScore,
		TotalEyeScore:          Round(concentration+stability+blinkScore, 1),
		BlinkCount:             len(s.Blinks),
		BlinksPerMinute:        Round(rate, 1),
		CenterTimeRatio:        Round(ratio*100, 1),
		DirectionChanges:       changes,
		ViolationCount:         cheat.ViolationCount,
		MultiFaceDetected:      cheat.SuspectedImpersonation,
		SuspectedCopying:       cheat.SuspectedCopying,
		SuspectedImpersonation: cheat.SuspectedImpersonation,
		TotalDuration:          Round(totalDuration, 2),
	}
}

// CenterRatio is the share of logged gaze time spent on intervals labeled
// exactly center. Returns ErrEmptyStream when no gaze time was logged.
func CenterRatio(gaze []LabelInterval) (float64, error) {
	var center, total float64
	for _, iv := range gaze {
		d := iv.Duration()
		total += d
		if iv.Value == label.Center {
			center += d
		}
	}
	if total <= 0 {
		return 0, ErrEmptyStream
	}
	return center / total, nil
}

// BlinkRate is blinks per minute. A non-positive duration is treated as one
// minute.
func BlinkRate(count int, durationSec float64) float64 {
	minutes := durationSec / 60
	if minutes <= 0 {
		minutes = 1
	}
	return float64(count) / minutes
}

// BlinkScore maps a blink rate to 0..10. 15-20/min is optimal and 10-25/min
// is acceptable; outside that the score falls off linearly from 17.5.
func BlinkScore(rate float64) float64 {
	switch {
	case rate >= 15 && rate <= 20:
		return maxBlink
	case rate >= 10 && rate <= 25:
		return 8
	}
	return math.Max(0, maxBlink-0.5*math.Abs(rate-17.5))
}

// Round rounds v half away from zero to the given decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// #endregion score
