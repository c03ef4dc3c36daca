package eventlog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/calibration"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
)

// #region layout

// Log file suffixes for one video, following {prefix}{suffix}.
const (
	GazeSuffix    = "_gaze.jsonl"
	HeadSuffix    = "_head.jsonl"
	BlinkSuffix   = ".jsonl"
	AnomalySuffix = "_anomalies.jsonl"
	RecalibSuffix = "_recalib.jsonl"
)

// #endregion layout

// #region write

// WriteStreams writes every stream of one video under dir.
func WriteStreams(dir, prefix string, s scoring.Streams, recal []calibration.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	write := func(suffix string, emit func(w *Writer) error) error {
		path := filepath.Join(dir, prefix+suffix)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := emit(NewWriter(f)); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		return f.Close()
	}

	if err := write(GazeSuffix, func(w *Writer) error {
		for _, iv := range s.Gaze {
			if err := w.Write(FromInterval(iv)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if err := write(HeadSuffix, func(w *Writer) error {
		for _, iv := range s.Head {
			if err := w.Write(FromInterval(iv)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if err := write(BlinkSuffix, func(w *Writer) error {
		for _, ev := range s.Blinks {
			if err := w.Write(FromBlink(ev)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if err := write(AnomalySuffix, func(w *Writer) error {
		for _, ep := range s.Anomalies {
			if err := w.Write(FromEpisode(ep)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return write(RecalibSuffix, func(w *Writer) error {
		for _, r := range recal {
			if err := w.Write(FromCalibration(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

// #endregion write

// #region read

// ReadStreams reads the gaze, head, blink and anomaly logs of one video.
// Missing files read as empty streams; malformed lines are skipped and
// counted.
func ReadStreams(dir, prefix string) (scoring.Streams, int, error) {
	var s scoring.Streams
	total := 0

	read := func(suffix string, fn func(io.Reader) (int, error)) error {
		path := filepath.Join(dir, prefix+suffix)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		n, err := fn(f)
		total += n
		return err
	}

	if err := read(GazeSuffix, func(r io.Reader) (n int, err error) {
		s.Gaze, n, err = ReadIntervals(r)
		return n, err
	}); err != nil {
		return s, total, err
	}
	if err := read(HeadSuffix, func(r io.Reader) (n int, err error) {
		s.Head, n, err = ReadIntervals(r)
		return n, err
	}); err != nil {
		return s, total, err
	}
	if err := read(BlinkSuffix, func(r io.Reader) (n int, err error) {
		s.Blinks, n, err = ReadBlinks(r)
		return n, err
	}); err != nil {
		return s, total, err
	}
	if err := read(AnomalySuffix, func(r io.Reader) (n int, err error) {
		s.Anomalies, n, err = ReadAnomalies(r)
		return n, err
	}); err != nil {
		return s, total, err
	}
	return s, total, nil
}

// #endregion read
