package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to analysis.db")
	sessionID := flag.String("session", "", "session to export (analyzed with --keep-frames)")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --session id --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, sessionID, outPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	row, err := st.GetSession(sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	frames, err := st.LoadFrames(sessionID)
	if err != nil {
		return fmt.Errorf("load frames: %w", err)
	}
	if len(frames) == 0 {
		return fmt.Errorf("session %s has no stored frames", sessionID)
	}
	streams, skipped, err := st.LoadStreams(sessionID)
	if err != nil {
		return fmt.Errorf("load streams: %w", err)
	}
	if skipped > 0 {
		fmt.Printf("Skipped %d unreadable stream rows\n", skipped)
	}

	fixture := buildFixture(row, frames, streams)
	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region output

// buildFixture turns a stored session into a regression fixture whose
// expectations are the stored outcome.
func buildFixture(row store.SessionRow, frames []landmark.FrameSample, s scoring.Streams) session.Fixture {
	blinkCount := len(s.Blinks)
	blinkTimes := make([]float64, len(s.Blinks))
	for i, b := range s.Blinks {
		blinkTimes[i] = scoring.Round(b.Time, 2)
	}
	concentration := row.Score.ConcentrationScore
	blinkScore := row.Score.BlinkScore
	copying := row.Cheating.SuspectedCopying
	impersonation := row.Cheating.SuspectedImpersonation

	return session.Fixture{
		Description: fmt.Sprintf("Stored session export: %s (%s), %d frames",
			row.SessionID, row.Meta.VideoKey, len(frames)),
		Duration: row.Duration,
		Frames:   compressFrames(frames),
		Expected: session.FixtureExpected{
			BlinkCount:             &blinkCount,
			BlinkTimes:             blinkTimes,
			GazeLabels:             labels(s.Gaze),
			HeadLabels:             labels(s.Head),
			AnomalyReasons:         reasons(s),
			ConcentrationScore:     &concentration,
			BlinkScore:             &blinkScore,
			SuspectedCopying:       &copying,
			SuspectedImpersonation: &impersonation,
		},
	}
}

// compressFrames keeps mesh frames verbatim and folds evenly spaced runs of
// mesh-less frames with the same face count into one repeated entry.
func compressFrames(frames []landmark.FrameSample) []session.FixtureFrame {
	var out []session.FixtureFrame
	for i := 0; i < len(frames); {
		f := frames[i]
		count := f.FaceCount
		ff := session.FixtureFrame{T: f.Timestamp, FaceCount: &count}
		if f.Landmarks != nil {
			ff.Landmarks = f.Landmarks
			out = append(out, ff)
			i++
			continue
		}

		ff.NoMesh = true
		j := i + 1
		if j < len(frames) && frames[j].Landmarks == nil && frames[j].FaceCount == count {
			step := frames[j].Timestamp - f.Timestamp
			for j < len(frames) && frames[j].Landmarks == nil && frames[j].FaceCount == count &&
				math.Abs(frames[j].Timestamp-frames[j-1].Timestamp-step) < 1e-9 {
				j++
			}
			if j-i > 1 {
				ff.Repeat = j - i
				ff.Step = step
			}
		}
		out = append(out, ff)
		i = j
	}
	return out
}

func labels(ivs []scoring.LabelInterval) []string {
	out := make([]string, len(ivs))
	for i, iv := range ivs {
		out[i] = string(iv.Value)
	}
	return out
}

func reasons(s scoring.Streams) []string {
	out := make([]string, len(s.Anomalies))
	for i, ep := range s.Anomalies {
		out[i] = string(ep.Reason)
	}
	return out
}

func writeFixture(fixture session.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d frame entries)\n", outPath, len(data), len(fixture.Frames))
	return nil
}

// #endregion output
