package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/anomaly"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/blink"
	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/scoring"
)

// #region writer

// Writer emits one JSON object per line.
type Writer struct {
	enc *json.Encoder
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write encodes v as a single line.
func (w *Writer) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// #endregion writer

// #region reader

// decodeLines decodes each non-blank line as T and converts it with conv.
// Lines that fail to decode or convert are counted and skipped. Only I/O
// errors are returned.
func decodeLines[T, R any](r io.Reader, conv func(T) (R, error)) (out []R, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		v, err := conv(rec)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return out, skipped, fmt.Errorf("read records: %w", err)
	}
	return out, skipped, nil
}

// ReadIntervals reads gaze or head interval records.
func ReadIntervals(r io.Reader) ([]scoring.LabelInterval, int, error) {
	return decodeLines(r, IntervalRecord.ToInterval)
}

// ReadBlinks reads blink records.
func ReadBlinks(r io.Reader) ([]blink.Event, int, error) {
	return decodeLines(r, BlinkRecord.ToEvent)
}

// ReadAnomalies reads anomaly records.
func ReadAnomalies(r io.Reader) ([]anomaly.Episode, int, error) {
	return decodeLines(r, AnomalyRecord.ToEpisode)
}

// #endregion reader
