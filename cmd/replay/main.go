package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/logging"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to analysis.db (DB mode)")
	sessionID := flag.String("session", "", "session to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	level := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	dbMode := *dbPath != "" && *sessionID != ""
	if dbMode == (*fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/analysis.db --session id")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	log := logging.InitLogger(*level)

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, log)
	} else {
		exitCode = runDBMode(*dbPath, *sessionID, log)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode re-runs the stored detector samples of a session with the
// current thresholds and compares the outcome with the stored scores.
func runDBMode(dbPath, sessionID string, log *slog.Logger) int {
	st, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	row, err := st.GetSession(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get session: %v\n", err)
		return 2
	}
	frames, err := st.LoadFrames(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load frames: %v\n", err)
		return 2
	}
	if len(frames) == 0 {
		fmt.Fprintln(os.Stderr, "no frames stored for session (analyze with --keep-frames)")
		return 2
	}

	res := session.Replay(frames, session.DefaultConfig(), row.Duration, log)

	stored, got := row.Score, res.Score
	checks := []session.Check{
		floatCheck("concentration_score", stored.ConcentrationScore, got.ConcentrationScore),
		floatCheck("stability_score", stored.StabilityScore, got.StabilityScore),
		floatCheck("blink_score", stored.BlinkScore, got.BlinkScore),
		floatCheck("total_eye_score", stored.TotalEyeScore, got.TotalEyeScore),
		intCheck("blink_count", stored.BlinkCount, got.BlinkCount),
		intCheck("direction_changes", stored.DirectionChanges, got.DirectionChanges),
		intCheck("violation_count", row.Cheating.ViolationCount, res.Cheating.ViolationCount),
		boolCheck("suspected_copying", row.Cheating.SuspectedCopying, res.Cheating.SuspectedCopying),
		boolCheck("suspected_impersonation", row.Cheating.SuspectedImpersonation, res.Cheating.SuspectedImpersonation),
	}
	return printComparison(checks)
}

func floatCheck(field string, want, got float64) session.Check {
	return session.Check{
		Field:    field,
		Expected: fmt.Sprintf("%.1f", want),
		Replayed: fmt.Sprintf("%.1f", got),
		Match:    math.Abs(want-got) < 0.05,
	}
}

func intCheck(field string, want, got int) session.Check {
	return session.Check{Field: field, Expected: fmt.Sprint(want), Replayed: fmt.Sprint(got), Match: want == got}
}

func boolCheck(field string, want, got bool) session.Check {
	return session.Check{Field: field, Expected: fmt.Sprint(want), Replayed: fmt.Sprint(got), Match: want == got}
}

// #endregion db-mode

// #region output

func runFixtureMode(path string, log *slog.Logger) int {
	f, err := session.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}

	res, err := session.ReplayFixture(f, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay fixture: %v\n", err)
		return 2
	}
	return printComparison(session.Compare(res, f.Expected))
}

// printComparison outputs a comparison table and returns exit code 1 when
// any check diverges.
func printComparison(checks []session.Check) int {
	fmt.Printf("%-24s| %-20s| %-20s| %s\n", "Field", "Expected", "Replayed", "Match")
	fmt.Printf("%-24s+%-21s+%-21s+%s\n",
		"------------------------", "---------------------", "---------------------", "------")

	matches := 0
	for _, c := range checks {
		match := "DIFF"
		if c.Match {
			match = "OK"
			matches++
		}
		fmt.Printf("%-24s| %-20s| %-20s| %s\n", c.Field, clip(c.Expected), clip(c.Replayed), match)
	}

	diverge := len(checks) - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(checks), matches, diverge)

	if diverge > 0 {
		return 1
	}
	return 0
}

func clip(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:17] + "..."
}

// #endregion output
