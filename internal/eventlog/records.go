// Package eventlog is the output boundary: one JSON record per closed
// interval or event, written as JSON Lines and read back for scoring.
package eventlog

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/calibration"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
)

// ErrMalformedRecord is returned for a line that does not decode to a valid
// record. Readers skip such lines.
var ErrMalformedRecord = errors.New("malformed record")

// #region records

// IntervalRecord is a closed gaze or head-pose interval.
type IntervalRecord struct {
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
	Label     string   `json:"label"`
	Index     int      `json:"index"`
}

// BlinkRecord is a blink event.
type BlinkRecord struct {
	Time       *float64 `json:"time"`
	BlinkIndex int      `json:"blink_index"`
}

// AnomalyRecord is a closed face-count anomaly episode.
type AnomalyRecord struct {
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
	Reason    string   `json:"reason"`
	FaceCount int      `json:"face_count"`
	Index     int      `json:"index"`
}

// RecalibrationRecord marks a completed calibration window.
type RecalibrationRecord struct {
	Event     string  `json:"event"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func ptr(v float64) *float64 { return &v }

// #endregion records

// #region to-record

// FromInterval rounds an interval to the output precision.
func FromInterval(iv scoring.LabelInterval) IntervalRecord {
	return IntervalRecord{
		StartTime: ptr(scoring.Round(iv.Start, 2)),
		EndTime:   ptr(scoring.Round(iv.End, 2)),
		Label:     string(iv.Value),
		Index:     iv.Index,
	}
}

// FromBlink rounds a blink event to the output precision.
func FromBlink(ev blink.Event) BlinkRecord {
	return BlinkRecord{Time: ptr(scoring.Round(ev.Time, 2)), BlinkIndex: ev.Index}
}

// FromEpisode rounds an anomaly episode to the output precision.
func FromEpisode(ep anomaly.Episode) AnomalyRecord {
	return AnomalyRecord{
		StartTime: ptr(scoring.Round(ep.Start, 2)),
		EndTime:   ptr(scoring.Round(ep.End, 2)),
		Reason:    string(ep.Reason),
		FaceCount: ep.FaceCount,
		Index:     ep.Index,
	}
}

// FromCalibration rounds a calibration window to millisecond precision.
func FromCalibration(r calibration.Record) RecalibrationRecord {
	return RecalibrationRecord{
		Event:     "recalib",
		StartTime: scoring.Round(r.Start, 3),
		EndTime:   scoring.Round(r.End, 3),
	}
}

// #endregion to-record

// #region from-record

// ToInterval validates a record and converts it back.
func (r IntervalRecord) ToInterval() (scoring.LabelInterval, error) {
	if r.StartTime == nil || r.EndTime == nil || *r.StartTime > *r.EndTime {
		return scoring.LabelInterval{}, fmt.Errorf("interval %d: bad bounds: %w", r.Index, ErrMalformedRecord)
	}
	l, err := label.Parse(r.Label)
	if err != nil || !l.IsDirectional() {
		return scoring.LabelInterval{}, fmt.Errorf("interval %d: label %q: %w", r.Index, r.Label, ErrMalformedRecord)
	}
	return scoring.LabelInterval{Start: *r.StartTime, End: *r.EndTime, Value: l, Index: r.Index}, nil
}

// ToEvent validates a record and converts it back.
func (r BlinkRecord) ToEvent() (blink.Event, error) {
	if r.Time == nil {
		return blink.Event{}, fmt.Errorf("blink %d: missing time: %w", r.BlinkIndex, ErrMalformedRecord)
	}
	return blink.Event{Time: *r.Time, Index: r.BlinkIndex}, nil
}

// ToEpisode validates a record and converts it back.
func (r AnomalyRecord) ToEpisode() (anomaly.Episode, error) {
	if r.StartTime == nil || r.EndTime == nil || *r.StartTime > *r.EndTime {
		return anomaly.Episode{}, fmt.Errorf("anomaly %d: bad bounds: %w", r.Index, ErrMalformedRecord)
	}
	reason := anomaly.Reason(r.Reason)
	if want, ok := anomaly.Categorize(r.FaceCount); !ok || want != reason {
		return anomaly.Episode{}, fmt.Errorf("anomaly %d: reason %q with %d faces: %w", r.Index, r.Reason, r.FaceCount, ErrMalformedRecord)
	}
	return anomaly.Episode{Start: *r.StartTime, End: *r.EndTime, Reason: reason, FaceCount: r.FaceCount, Index: r.Index}, nil
}

// #endregion from-record
