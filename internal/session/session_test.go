package session

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/label"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark/synth"
)

// #region helpers

// calibrated returns a session that finished calibrating at t=1.0.
func calibrated(t *testing.T) *Session {
	t.Helper()
	s := New("test", DefaultConfig(), nil)
	for i := 0; i <= 10; i++ {
		s.Process(synth.Neutral().Sample(float64(i) * 0.1))
	}
	if !s.calib.IsCalibrated() {
		t.Fatal("expected session calibrated after 1s")
	}
	return s
}

func eyes(ratio float64) synth.Face {
	f := synth.Neutral()
	f.EyeHeight = 0.05 * ratio
	return f
}

// #endregion helpers

// #region process-tests

func TestProcess_BlinkFrameNeverClassifiedForGaze(t *testing.T) {
	s := calibrated(t)
	ratios := []float64{1, 1, 0.25, 0.25, 1, 1}
	var blinkAt float64 = -1
	for i, r := range ratios {
		ts := 1.1 + float64(i)*0.1
		res := s.Process(eyes(r).Sample(ts))
		if res.Blink {
			if res.Gaze != label.Blink {
				t.Errorf("blink frame labeled %q", res.Gaze)
			}
			blinkAt = ts
		}
	}
	if blinkAt < 0 {
		t.Fatal("expected a blink")
	}
	r := s.Finish(2)
	for _, iv := range r.Gaze {
		if iv.Value != label.Center {
			t.Errorf("expected only center gaze around a blink, got %+v", iv)
		}
	}
	if len(r.Blinks) != 1 || r.Blinks[0].Index != 1 {
		t.Errorf("expected one blink, got %+v", r.Blinks)
	}
}

func TestProcess_MissingMeshIsInvisible(t *testing.T) {
	s := calibrated(t)
	s.Process(synth.Neutral().Sample(1.1))
	res := s.Process(landmark.FrameSample{Timestamp: 1.2, FaceCount: 1})
	if !res.Skipped {
		t.Error("expected frame without mesh to be skipped")
	}
	s.Process(synth.Neutral().Sample(1.3))
	r := s.Finish(1.3)

	if len(r.Gaze) != 1 || r.Gaze[0].Start != 1.0 || r.Gaze[0].End != 1.3 {
		t.Errorf("expected one unbroken gaze interval, got %+v", r.Gaze)
	}
	if len(r.Anomalies) != 0 {
		t.Errorf("single-face frame without mesh is not an anomaly, got %+v", r.Anomalies)
	}
	if r.FramesSkipped != 1 {
		t.Errorf("expected 1 skipped frame, got %d", r.FramesSkipped)
	}
}

func TestProcess_StatusLabelsNeverLogged(t *testing.T) {
	s := New("", DefaultConfig(), nil)
	away := synth.Neutral()
	away.NoseX = 0.56
	for i := 0; i < 5; i++ {
		res := s.Process(away.Sample(float64(i) * 0.1))
		if res.Head != label.NotReady {
			t.Errorf("frame %d: expected not_ready, got %q", i, res.Head)
		}
	}
	r := s.Finish(0.5)
	if len(r.Head) != 0 || len(r.Gaze) != 0 {
		t.Errorf("expected no intervals before calibration, got head=%+v gaze=%+v", r.Head, r.Gaze)
	}
}

func TestProcess_OutOfOrderDropped(t *testing.T) {
	s := calibrated(t)
	if res := s.Process(synth.Neutral().Sample(0.5)); !res.Skipped {
		t.Error("expected earlier timestamp to be dropped")
	}
}

func TestNew_GeneratesID(t *testing.T) {
	a := New("", DefaultConfig(), nil)
	b := New("", DefaultConfig(), nil)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("expected distinct generated ids, got %q and %q", a.ID(), b.ID())
	}
}

// #endregion process-tests

// #region finish-tests

// Stopping early still yields a fully closed log.
func TestFinish_EarlyStopClosesEverything(t *testing.T) {
	s := calibrated(t)
	left := synth.Neutral()
	left.NoseX = 0.46
	s.Process(left.Sample(1.1))
	s.Process(landmark.FrameSample{Timestamp: 1.2, FaceCount: 2})

	r := s.Finish(0)
	if r.Duration != 1.2 {
		t.Errorf("expected duration clamped to last frame 1.2, got %v", r.Duration)
	}
	if last := r.Head[len(r.Head)-1]; last.Value != label.Left || last.End != 1.2 {
		t.Errorf("expected open head interval closed at 1.2, got %+v", last)
	}
	if len(r.Anomalies) != 1 || r.Anomalies[0].End != 1.2 {
		t.Errorf("expected open anomaly closed at 1.2, got %+v", r.Anomalies)
	}

	again := s.Finish(10)
	if again.Duration != r.Duration || len(again.Head) != len(r.Head) {
		t.Error("expected Finish to be idempotent")
	}
	if res := s.Process(synth.Neutral().Sample(2)); !res.Skipped {
		t.Error("expected frames after Finish to be ignored")
	}
}

// Gaze intervals tile the span from calibration to the end of the video.
func TestFinish_IntervalCoverage(t *testing.T) {
	s := calibrated(t)
	for i := 1; i <= 30; i++ {
		f := synth.Neutral()
		if i%7 < 3 {
			f.IrisShiftX = -0.01
		}
		s.Process(f.Sample(1 + float64(i)*0.1))
	}
	r := s.Finish(4)

	var total float64
	for i, iv := range r.Gaze {
		if i > 0 && iv.Start != r.Gaze[i-1].End {
			t.Errorf("gaze interval %d does not start where %d ends", i, i-1)
		}
		total += iv.Duration()
	}
	if math.Abs(total-3.0) > 1e-9 {
		t.Errorf("expected gaze coverage of 3.0s, got %f", total)
	}
}

// #endregion finish-tests

// #region fixture-tests

// TestFixtures replays every scenario under testdata and checks each
// expectation it declares.
func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), ".json")
		t.Run(name, func(t *testing.T) {
			f, err := LoadFixture(p)
			if err != nil {
				t.Fatalf("LoadFixture: %v", err)
			}
			r, err := ReplayFixture(f, nil)
			if err != nil {
				t.Fatalf("ReplayFixture: %v", err)
			}
			for _, c := range Compare(r, f.Expected) {
				if !c.Match {
					t.Errorf("%s: expected %s, got %s", c.Field, c.Expected, c.Replayed)
				}
			}
		})
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing fixture")
	}
}

func TestFixtureFrame_BadFace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"frames":[{"t":0,"face":{"nose_x":"left"}}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if _, err := ReplayFixture(f, nil); err == nil {
		t.Error("expected error for malformed face override")
	}
}

// #endregion fixture-tests
