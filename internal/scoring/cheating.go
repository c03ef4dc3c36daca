package scoring

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
)

// #region types

// Violation is one event counted toward the copying threshold.
type Violation struct {
	Index   int     `json:"index"`
	Kind    string  `json:"kind"` // no_face, multiple_faces_detected or head_direction
	Start   float64 `json:"start_time"`
	End     float64 `json:"end_time"`
	Comment string  `json:"comments"`
}

// CheatingReport lists violations and the two suspicion flags.
type CheatingReport struct {
	ViolationCount         int         `json:"violation_count"`
	SuspectedCopying       bool        `json:"suspected_copying"`
	SuspectedImpersonation bool        `json:"suspected_impersonation"`
	Summary                string      `json:"summary"`
	Violations             []Violation `json:"violations"`
}

// #endregion types

// #region detect

// DetectCheating counts anomaly episodes and non-center head intervals as
// violations. Every qualifying episode or interval counts once regardless of
// its duration. Any multi-face episode flags impersonation.
func DetectCheating(head []LabelInterval, anomalies []anomaly.Episode, config Config) CheatingReport {
	var r CheatingReport
	add := func(v Violation) {
		v.Index = len(r.Violations) + 1
		r.Violations = append(r.Violations, v)
	}

	for _, ep := range anomalies {
		switch ep.Reason {
		case anomaly.NoFace:
			add(Violation{
				Kind:    string(ep.Reason),
				Start:   ep.Start,
				End:     ep.End,
				Comment: fmt.Sprintf("%d faces detected", ep.FaceCount),
			})
		case anomaly.MultipleFaces:
			r.SuspectedImpersonation = true
			add(Violation{
				Kind:    string(ep.Reason),
				Start:   ep.Start,
				End:     ep.End,
				Comment: fmt.Sprintf("%d faces detected (another person suspected)", ep.FaceCount),
			})
		}
	}
	for _, iv := range head {
		if iv.Value == label.Center {
			continue
		}
		add(Violation{
			Kind:    "head_direction",
			Start:   iv.Start,
			End:     iv.End,
			Comment: "head direction: " + string(iv.Value),
		})
	}

	r.ViolationCount = len(r.Violations)
	r.SuspectedCopying = r.ViolationCount >= config.CopyingThreshold

	var parts []string
	if r.SuspectedCopying {
		parts = append(parts, fmt.Sprintf("%d violations detected (threshold %d)", r.ViolationCount, config.CopyingThreshold))
	}
	if r.SuspectedImpersonation {
		parts = append(parts, "another person suspected")
	}
	if len(parts) == 0 {
		r.Summary = "no suspicious behaviour detected"
	} else {
		r.Summary = strings.Join(parts, " | ")
	}
	return r
}

// #endregion detect
