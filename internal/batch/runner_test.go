package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/detector"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark/synth"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/store"
)

// #region fakes

// sliceSource serves samples in order. errAt, when set, makes the read at
// that position fail instead.
type sliceSource struct {
	samples []landmark.FrameSample
	pos     int
	errAt   map[int]error
	closed  atomic.Bool
}

func (s *sliceSource) Next(ctx context.Context) (landmark.FrameSample, error) {
	if err := ctx.Err(); err != nil {
		return landmark.FrameSample{}, err
	}
	i := s.pos
	s.pos++
	if err, ok := s.errAt[i]; ok {
		return landmark.FrameSample{}, err
	}
	if i >= len(s.samples) {
		return landmark.FrameSample{}, io.EOF
	}
	return s.samples[i], nil
}

func (s *sliceSource) Close() error {
	s.closed.Store(true)
	return nil
}

// noFace returns n samples with no face, 0.1s apart.
func noFace(n int) []landmark.FrameSample {
	out := make([]landmark.FrameSample, n)
	for i := range out {
		out[i] = landmark.FrameSample{Timestamp: float64(i) / 10}
	}
	return out
}

func tempStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "batch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runLogCount(t *testing.T, st *store.Store) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow("SELECT COUNT(*) FROM run_log").Scan(&n))
	return n
}

// #endregion fakes

// #region run-tests

func TestRun_IndependentSessions(t *testing.T) {
	st := tempStore(t)
	cfg := DefaultConfig()
	cfg.Workers = 2
	r := NewRunner(cfg, st, st.DB(), nil)

	var jobs []Job
	var sources []*sliceSource
	for i := 0; i < 5; i++ {
		src := &sliceSource{samples: noFace(10 + i)}
		sources = append(sources, src)
		jobs = append(jobs, Job{Meta: session.Meta{VideoKey: fmt.Sprintf("v%d.webm", i)}, Source: src})
	}

	outcomes, err := r.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, outcomes, 5)

	ids := map[string]bool{}
	for i, o := range outcomes {
		require.NoError(t, o.Err)
		require.Equal(t, fmt.Sprintf("v%d.webm", i), o.Meta.VideoKey)
		require.Len(t, o.Result.Anomalies, 1)
		require.Equal(t, anomaly.NoFace, o.Result.Anomalies[0].Reason)
		require.InDelta(t, float64(9+i)/10, o.Result.Duration, 1e-9)
		require.True(t, sources[i].closed.Load(), "source %d not closed", i)
		ids[o.Result.SessionID] = true
	}
	require.Len(t, ids, 5)

	rows, err := st.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, 5, runLogCount(t, st))
}

func TestRun_DetectFailureSkipsFrame(t *testing.T) {
	face := synth.Neutral()
	src := &sliceSource{
		samples: []landmark.FrameSample{face.Sample(0), face.Sample(0.1), face.Sample(0.2)},
		errAt:   map[int]error{1: fmt.Errorf("%w: f002.jpg: boom", detector.ErrDetectFailed)},
	}
	r := NewRunner(DefaultConfig(), nil, nil, nil)

	outcomes, err := r.Run(context.Background(), []Job{{SessionID: "s1", Source: src}})
	require.NoError(t, err)
	require.NoError(t, outcomes[0].Err)
	// position 1 failed, so only samples 0 and 2 reached the session
	require.Equal(t, 2, outcomes[0].Result.FramesProcessed)
	require.Equal(t, 1, outcomes[0].Result.FramesSkipped)
	require.Equal(t, "s1", outcomes[0].Result.SessionID)
}

func TestRun_ReadErrorStillFinishes(t *testing.T) {
	st := tempStore(t)
	src := &sliceSource{samples: noFace(10), errAt: map[int]error{4: errors.New("disk gone")}}
	r := NewRunner(DefaultConfig(), st, st.DB(), nil)

	outcomes, err := r.Run(context.Background(), []Job{{Source: src}})
	require.NoError(t, err)
	o := outcomes[0]
	require.Error(t, o.Err)
	require.Len(t, o.Result.Anomalies, 1)
	require.InDelta(t, 0.3, o.Result.Anomalies[0].End, 1e-9)

	row, err := st.GetSession(o.Result.SessionID)
	require.NoError(t, err)
	require.Equal(t, o.Result.SessionID, row.SessionID)

	var msg, status string
	require.NoError(t, st.DB().QueryRow("SELECT error, status FROM run_log").Scan(&msg, &status))
	require.Contains(t, msg, "disk gone")
	require.Equal(t, "partial", status)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(DefaultConfig(), nil, nil, nil)

	outcomes, err := r.Run(ctx, []Job{{Source: &sliceSource{samples: noFace(3)}}})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, outcomes[0].Err, context.Canceled)
	require.NotEmpty(t, outcomes[0].Result.SessionID)
}

func TestRun_NoSource(t *testing.T) {
	st := tempStore(t)
	r := NewRunner(DefaultConfig(), st, st.DB(), nil)

	outcomes, err := r.Run(context.Background(), []Job{{Meta: session.Meta{VideoKey: "missing.webm"}}})
	require.NoError(t, err)
	require.Error(t, outcomes[0].Err)

	rows, err := st.ListSessions(10)
	require.NoError(t, err)
	require.Empty(t, rows)
	require.Equal(t, 1, runLogCount(t, st))
}

func TestRun_KeepFrames(t *testing.T) {
	st := tempStore(t)
	cfg := DefaultConfig()
	cfg.KeepFrames = true
	r := NewRunner(cfg, st, nil, nil)

	outcomes, err := r.Run(context.Background(), []Job{{Source: &sliceSource{samples: noFace(6)}}})
	require.NoError(t, err)

	frames, err := st.LoadFrames(outcomes[0].Result.SessionID)
	require.NoError(t, err)
	require.Len(t, frames, 6)
	require.Equal(t, 0.5, frames[5].Timestamp)
}

// #endregion run-tests
