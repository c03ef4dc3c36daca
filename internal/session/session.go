// Package session runs the per-video analysis state machine. A Session owns
// every stateful component for one video; sessions share nothing, so
// separate videos can be processed concurrently with one Session each.
package session

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/calibration"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/gaze"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/headpose"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/segment"
)

// #region session

// Session is not safe for concurrent use; frames must be fed in order.
type Session struct {
	id     string
	config Config
	log    *slog.Logger

	calib   *calibration.Engine
	blink   *blink.Detector
	gaze    *gaze.Classifier
	head    *headpose.Classifier
	anomaly *anomaly.Detector
	gazeSeg *segment.Segmenter[label.Label]
	headSeg *segment.Segmenter[label.Label]

	seen      bool
	last      float64
	processed int
	skipped   int
	result    *Result
}

// New creates a Session. An empty id is replaced with a random UUID.
// log may be nil.
func New(id string, config Config, log *slog.Logger) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session", id)
	return &Session{
		id:      id,
		config:  config,
		log:     log,
		calib:   calibration.NewEngine(config.Calibration, log),
		blink:   blink.NewDetector(config.Blink, log),
		gaze:    gaze.NewClassifier(config.Gaze),
		head:    headpose.NewClassifier(config.HeadPose),
		anomaly: anomaly.NewDetector(log),
		gazeSeg: segment.New[label.Label](),
		headSeg: segment.New[label.Label](),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// #endregion session

// #region process

// Process folds one frame into every component. The face count always
// reaches the anomaly detector. Classification only runs for frames with
// exactly one face and a full mesh; other frames leave calibration and the
// gaze and head intervals untouched.
func (s *Session) Process(f landmark.FrameSample) FrameResult {
	t := f.Timestamp
	res := FrameResult{Timestamp: t}

	if s.result != nil || (s.seen && t < s.last) {
		if s.result == nil {
			s.log.Warn("out-of-order frame dropped", "t", t, "last", s.last)
		}
		s.skipped++
		res.Skipped = true
		return res
	}
	s.seen = true
	s.last = t

	s.anomaly.Update(t, f.FaceCount)
	if f.FaceCount != 1 || !f.HasMesh() {
		s.skipped++
		res.Skipped = true
		return res
	}
	s.processed++

	status := s.calib.Update(f)
	res.Status = status

	baseline, err := s.calib.Baseline()
	if err == nil {
		s.classifyEyes(f, baseline, &res)
	}

	res.Head = s.head.Classify(f, baseline, status)
	if res.Head.IsDirectional() {
		s.headSeg.Update(t, res.Head)
	}
	return res
}

// classifyEyes runs blink detection first; a blink frame is never
// classified for gaze.
func (s *Session) classifyEyes(f landmark.FrameSample, b calibration.Baseline, res *FrameResult) {
	blinked, err := s.blink.Classify(f, b)
	if err != nil {
		return
	}
	if blinked {
		s.gaze.ResetDown()
		res.Blink = true
		res.Gaze = label.Blink
		return
	}
	g, err := s.gaze.Classify(f, b)
	if err != nil {
		return
	}
	res.Gaze = g
	s.gazeSeg.Update(f.Timestamp, g)
}

// #endregion process

// #region finish

// Finish closes every open interval and scores the session. end is the
// video duration in seconds; when it is earlier than the last frame the
// last frame time is used. Finish may be called early to cancel; later
// calls return the same Result and further frames are ignored.
func (s *Session) Finish(end float64) Result {
	if s.result != nil {
		return *s.result
	}
	if end < s.last {
		end = s.last
	}

	s.gazeSeg.ForceClose(end)
	s.headSeg.ForceClose(end)
	s.anomaly.ForceClose(end)

	r := Result{
		SessionID:       s.id,
		Duration:        end,
		FramesProcessed: s.processed,
		FramesSkipped:   s.skipped,
		Gaze:            s.gazeSeg.Intervals(),
		Head:            s.headSeg.Intervals(),
		Blinks:          s.blink.Events(),
		Anomalies:       s.anomaly.Episodes(),
		Recalibrations:  s.calib.Recalibrations(),
	}
	r.Score = scoring.Score(r.Streams(), end, s.config.Scoring)
	r.Cheating = scoring.DetectCheating(r.Head, r.Anomalies, s.config.Scoring)
	// empty streams still yield a no_data evaluation
	r.EyeContact, _ = scoring.EvaluateEyeContact(r.Gaze)
	r.Communication, _ = scoring.EvaluateCommunication(r.Blinks)

	s.result = &r
	s.log.Info("session finished",
		"duration", end,
		"frames", s.processed,
		"skipped", s.skipped,
		"blinks", len(r.Blinks),
		"total_eye_score", r.Score.TotalEyeScore,
	)
	return r
}

// #endregion finish
