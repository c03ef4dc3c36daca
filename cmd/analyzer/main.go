package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	_ "go.uber.org/automaxprocs"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/batch"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/config"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/detector"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/eventlog"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/logging"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/store"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/videokey"
)

// #region main

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DBPath, "path to analysis database")
	key := flag.String("key", "", "storage key of the video (single input only)")
	user := flag.String("user", "", "candidate id, overrides the key")
	question := flag.String("question", "", "question id, overrides the key")
	duration := flag.Float64("duration", 0, "video length in seconds (0 = last frame time)")
	fps := flag.Float64("fps", detector.DefaultFPS, "frame rate of extracted image directories")
	interval := flag.Int("frame-interval", cfg.FrameInterval, "analyze every Nth image")
	workers := flag.Int("workers", cfg.Workers, "videos analyzed in parallel")
	outDir := flag.String("out", "", "write JSONL event logs to this directory")
	keepFrames := flag.Bool("keep-frames", false, "store detector samples for later replay")
	jsonOut := flag.Bool("json", false, "print results as JSON")
	level := flag.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.Parse()

	inputs := flag.Args()
	if len(inputs) == 0 || (*key != "" && len(inputs) > 1) {
		fmt.Fprintln(os.Stderr, "usage: analyzer [flags] detections.jsonl|frames-dir ...")
		fmt.Fprintln(os.Stderr, "  a .jsonl input replays recorded detector output;")
		fmt.Fprintln(os.Stderr, "  a directory of images is sent to the detector at $DETECTOR_ADDR")
		fmt.Fprintln(os.Stderr, "  --key/--user/--question require a single input")
		os.Exit(2)
	}

	log := logging.InitLogger(*level)

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	var client *detector.Client
	jobs := make([]batch.Job, 0, len(inputs))
	for _, in := range inputs {
		src, err := openSource(in, *fps, *interval, func() (*detector.Client, error) {
			if client == nil {
				c, err := detector.NewClient(cfg.DetectorAddr, cfg.DetectorTimeout)
				if err != nil {
					return nil, err
				}
				client = c
			}
			return client, nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", in, err)
			os.Exit(1)
		}
		k := in
		if *key != "" {
			k = *key
		}
		jobs = append(jobs, batch.Job{
			Meta:     videokey.Resolve(k, *user, *question),
			Source:   src,
			Duration: *duration,
		})
	}
	if client != nil {
		defer client.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := batch.NewRunner(batch.Config{
		Workers:    *workers,
		KeepFrames: *keepFrames,
		Session:    session.DefaultConfig(),
	}, st, st.DB(), log)

	outcomes, runErr := runner.Run(ctx, jobs)
	os.Exit(report(outcomes, runErr, *outDir, *jsonOut))
}

// #endregion main

// #region sources

func openSource(path string, fps float64, interval int, client func() (*detector.Client, error)) (detector.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return detector.OpenFile(path)
	}
	c, err := client()
	if err != nil {
		return nil, err
	}
	return detector.NewDirSource(path, fps, interval, c)
}

// #endregion sources

// #region output

type videoReport struct {
	Video     string                 `json:"video"`
	UserID    string                 `json:"user_id"`
	Question  string                 `json:"question_id"`
	SessionID string                 `json:"session_id"`
	Score     scoring.ScoreResult    `json:"score"`
	Cheating  scoring.CheatingReport `json:"cheating"`
	Eye       scoring.Evaluation     `json:"eye_contact"`
	Comm      scoring.Evaluation     `json:"communication"`
	Error     string                 `json:"error,omitempty"`
}

// report writes logs and prints one line or object per video. It returns 1
// if any video failed.
func report(outcomes []batch.Outcome, runErr error, outDir string, jsonOut bool) int {
	code := 0
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "interrupted: %v\n", runErr)
		code = 1
	}

	prefixes := logPrefixes(outcomes)
	var reports []videoReport
	for i, o := range outcomes {
		r := videoReport{
			Video:     o.Meta.VideoKey,
			UserID:    o.Meta.UserID,
			Question:  o.Meta.QuestionID,
			SessionID: o.Result.SessionID,
			Score:     o.Result.Score,
			Cheating:  o.Result.Cheating,
			Eye:       o.Result.EyeContact,
			Comm:      o.Result.Communication,
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
			code = 1
		}
		if outDir != "" && o.Result.SessionID != "" {
			if err := eventlog.WriteStreams(outDir, prefixes[i], o.Result.Streams(), o.Result.Recalibrations); err != nil {
				fmt.Fprintf(os.Stderr, "%s: write logs: %v\n", o.Meta.VideoKey, err)
				code = 1
			}
		}
		reports = append(reports, r)
	}

	if jsonOut {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal json: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return code
	}

	fmt.Printf("%-10s  %-24s  %6s  %6s  %6s  %6s  %5s  %s\n",
		"Session", "Video", "Conc", "Stab", "Blink", "Total", "Viol", "Flags")
	fmt.Printf("%-10s+-%-24s+-%6s+-%6s+-%6s+-%6s+-%5s+-%s\n",
		"----------", "------------------------", "------", "------", "------", "------", "-----", "--------")
	for _, o := range outcomes {
		s := o.Result.Score
		fmt.Printf("%-10s  %-24s  %6.1f  %6.1f  %6.1f  %6.1f  %5d  %s\n",
			shortID(o.Result.SessionID), trimKey(o.Meta.VideoKey, 24),
			s.ConcentrationScore, s.StabilityScore, s.BlinkScore, s.TotalEyeScore,
			o.Result.Cheating.ViolationCount, flags(o))
	}
	return code
}

// logPrefixes names each video's log files user_question. Videos that
// resolve to the same pair get the short session id appended so none of
// them overwrites another's logs.
func logPrefixes(outcomes []batch.Outcome) []string {
	prefixes := make([]string, len(outcomes))
	seen := make(map[string]int)
	for i, o := range outcomes {
		prefixes[i] = o.Meta.UserID + "_" + o.Meta.QuestionID
		if o.Result.SessionID != "" {
			seen[prefixes[i]]++
		}
	}
	for i, o := range outcomes {
		if seen[prefixes[i]] > 1 && o.Result.SessionID != "" {
			prefixes[i] += "_" + shortID(o.Result.SessionID)
		}
	}
	return prefixes
}

func flags(o batch.Outcome) string {
	var f []string
	if o.Result.Cheating.SuspectedCopying {
		f = append(f, "copying")
	}
	if o.Result.Cheating.SuspectedImpersonation {
		f = append(f, "impersonation")
	}
	if o.Err != nil {
		f = append(f, "error")
	}
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, ",")
}

func trimKey(k string, n int) string {
	if len(k) <= n {
		return k
	}
	return "..." + k[len(k)-n+3:]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
