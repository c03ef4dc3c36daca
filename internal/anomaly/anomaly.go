// Package anomaly tracks episodes where the frame does not contain exactly
// one face.
package anomaly

import (
	"log/slog"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/segment"
)

// #region types

// Reason classifies a face-count anomaly.
type Reason string

const (
	NoFace        Reason = "no_face"
	MultipleFaces Reason = "multiple_faces_detected"
)

// Categorize maps a face count to its anomaly reason. ok is false for
// exactly one face.
func Categorize(faceCount int) (r Reason, ok bool) {
	switch {
	case faceCount <= 0:
		return NoFace, true
	case faceCount >= 2:
		return MultipleFaces, true
	}
	return "", false
}

// Episode is one closed anomaly interval.
type Episode struct {
	Start     float64 `json:"start_time"`
	End       float64 `json:"end_time"`
	Reason    Reason  `json:"reason"`
	FaceCount int     `json:"face_count"`
	Index     int     `json:"index"`
}

// key distinguishes episodes: a change of reason or of the exact face count
// starts a new one.
type key struct {
	reason Reason
	count  int
}

// #endregion types

// #region detector

// Detector segments the face-count stream into anomaly episodes. Normal
// frames close the open episode without opening another.
type Detector struct {
	seg      *segment.Segmenter[key]
	log      *slog.Logger
	episodes []Episode
}

// NewDetector creates a Detector. log may be nil.
func NewDetector(log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{seg: segment.New[key](), log: log}
}

// Update records the face count observed at t.
func (d *Detector) Update(t float64, faceCount int) {
	reason, ok := Categorize(faceCount)
	if !ok {
		d.ForceClose(t)
		return
	}
	if iv, closed := d.seg.Update(t, key{reason: reason, count: faceCount}); closed {
		d.emit(iv)
	}
}

// ForceClose ends the open episode at t, if any.
func (d *Detector) ForceClose(t float64) {
	if iv, ok := d.seg.ForceClose(t); ok {
		d.emit(iv)
	}
}

// Active reports whether an episode is open.
func (d *Detector) Active() bool {
	_, _, ok := d.seg.Active()
	return ok
}

// Episodes returns every closed episode in order.
func (d *Detector) Episodes() []Episode {
	out := make([]Episode, len(d.episodes))
	copy(out, d.episodes)
	return out
}

func (d *Detector) emit(iv segment.Interval[key]) {
	ep := Episode{
		Start:     iv.Start,
		End:       iv.End,
		Reason:    iv.Value.reason,
		FaceCount: iv.Value.count,
		Index:     iv.Index,
	}
	d.episodes = append(d.episodes, ep)
	d.log.Info("face anomaly", "reason", ep.Reason, "face_count", ep.FaceCount, "start", ep.Start, "end", ep.End)
}

// #endregion detector
