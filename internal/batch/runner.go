package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/detector"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/logging"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
)

// #region types

// Sink persists finished sessions.
type Sink interface {
	SaveResult(r session.Result, meta session.Meta) error
}

// FrameSink additionally keeps the raw detector samples of a session so it
// can be replayed later. A Sink that implements it receives the frames when
// Config.KeepFrames is set.
type FrameSink interface {
	SaveFrames(sessionID string, frames []landmark.FrameSample) error
}

// Job is one video to analyze. Duration is the video length in seconds; zero
// means the last frame time. A Source that implements io.Closer is closed
// when the job ends.
type Job struct {
	SessionID string
	Meta      session.Meta
	Source    detector.Source
	Duration  float64
}

// Outcome is the result of one job. Result is set even when Err is not nil,
// as long as the session started.
type Outcome struct {
	Meta   session.Meta
	Result session.Result
	Err    error
}

// Config controls a Runner.
type Config struct {
	Workers    int
	KeepFrames bool
	Session    session.Config
}

// DefaultConfig returns four workers with production session thresholds.
func DefaultConfig() Config {
	return Config{Workers: 4, Session: session.DefaultConfig()}
}

// #endregion types

// #region runner

// Runner analyzes videos concurrently. Each job gets its own Session, so
// workers share nothing but the sink and the run log.
type Runner struct {
	config Config
	sink   Sink
	runLog *sql.DB
	log    *slog.Logger
}

// NewRunner builds a Runner. sink and runLog may be nil.
func NewRunner(config Config, sink Sink, runLog *sql.DB, log *slog.Logger) *Runner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{config: config, sink: sink, runLog: runLog, log: log}
}

// Run analyzes every job and returns one Outcome per job in input order.
// Per-video failures are reported in the outcomes; the returned error is
// only the context's once it is cancelled.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(r.config.Workers)

	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = r.runJob(ctx, job)
			return nil
		})
	}
	g.Wait()
	return outcomes, ctx.Err()
}

// runJob drives one Session to completion, persists it and records the run.
func (r *Runner) runJob(ctx context.Context, job Job) Outcome {
	if c, ok := job.Source.(io.Closer); ok {
		defer c.Close()
	}
	log := r.log.With("video", job.Meta.VideoKey)

	res, frames, err := r.analyze(ctx, job, log)
	if res.SessionID != "" {
		if saveErr := r.save(job, res, frames, log); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}
	r.record(job, res, err, log)

	if err != nil {
		log.Warn("analysis failed", "session", res.SessionID, "err", err)
	}
	return Outcome{Meta: job.Meta, Result: res, Err: err}
}

// analyze feeds every frame into a fresh Session. A read error or
// cancellation stops the feed, but the session is still finished so its
// streams are closed.
func (r *Runner) analyze(ctx context.Context, job Job, log *slog.Logger) (session.Result, []landmark.FrameSample, error) {
	if job.Source == nil {
		return session.Result{}, nil, fmt.Errorf("job %q: no frame source", job.Meta.VideoKey)
	}
	sess := session.New(job.SessionID, r.config.Session, log)

	var frames []landmark.FrameSample
	failed := 0
	var readErr error
	for {
		sample, err := job.Source.Next(ctx)
		if err == io.EOF {
			break
		}
		if errors.Is(err, detector.ErrDetectFailed) {
			failed++
			log.Debug("frame skipped", "err", err)
			continue
		}
		if err != nil {
			readErr = fmt.Errorf("read frame: %w", err)
			break
		}
		sess.Process(sample)
		if r.config.KeepFrames {
			frames = append(frames, sample)
		}
	}

	res := sess.Finish(job.Duration)
	res.FramesSkipped += failed
	return res, frames, readErr
}

// save writes the result, then the frames, which reference the session row.
// A frame write failure is logged, not returned.
func (r *Runner) save(job Job, res session.Result, frames []landmark.FrameSample, log *slog.Logger) error {
	if r.sink == nil {
		return nil
	}
	if err := r.sink.SaveResult(res, job.Meta); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if fs, ok := r.sink.(FrameSink); ok && len(frames) > 0 {
		if err := fs.SaveFrames(res.SessionID, frames); err != nil {
			log.Warn("save frames failed", "err", err)
		}
	}
	return nil
}

func (r *Runner) record(job Job, res session.Result, runErr error, log *slog.Logger) {
	if r.runLog == nil {
		return
	}
	entry := logging.RunEntry{
		SessionID:       res.SessionID,
		VideoKey:        job.Meta.VideoKey,
		FramesProcessed: res.FramesProcessed,
		FramesSkipped:   res.FramesSkipped,
	}
	if b, err := json.Marshal(r.config.Session); err == nil {
		entry.ConfigJSON = string(b)
	}
	if res.SessionID != "" {
		if b, err := json.Marshal(res.Score); err == nil {
			entry.ScoreJSON = string(b)
		}
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if err := logging.LogRun(r.runLog, entry); err != nil {
		log.Warn("run log failed", "err", err)
	}
}

// #endregion runner
