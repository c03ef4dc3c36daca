package detector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// Source yields frame samples in video order. Next returns io.EOF once the
// video is exhausted.
type Source interface {
	Next(ctx context.Context) (landmark.FrameSample, error)
}

// Detector turns one encoded image into a frame sample.
type Detector interface {
	Detect(ctx context.Context, frame []byte, t float64) (landmark.FrameSample, error)
}

// DefaultFPS is assumed when the frame rate is unknown.
const DefaultFPS = 30

// ErrDetectFailed wraps a per-frame detector failure. Callers may skip the
// frame and keep reading.
var ErrDetectFailed = errors.New("detect failed")

// #region file-source
// FileSource replays detector output recorded as JSON lines, one
// landmark.FrameSample per line.
type FileSource struct {
	f       *os.File
	scanner *bufio.Scanner
	line    int
}

// OpenFile opens a recorded detection file.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detections: %w", err)
	}
	sc := bufio.NewScanner(f)
	// a refined mesh line is roughly 30 KB
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &FileSource{f: f, scanner: sc}, nil
}

// Next decodes the next non-blank line.
func (s *FileSource) Next(ctx context.Context) (landmark.FrameSample, error) {
	for {
		if err := ctx.Err(); err != nil {
			return landmark.FrameSample{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return landmark.FrameSample{}, fmt.Errorf("read detections: %w", err)
			}
			return landmark.FrameSample{}, io.EOF
		}
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}
		var sample landmark.FrameSample
		if err := json.Unmarshal([]byte(text), &sample); err != nil {
			return landmark.FrameSample{}, fmt.Errorf("decode detections line %d: %w", s.line, err)
		}
		return sample, nil
	}
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}

// #endregion file-source

// #region dir-source
var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// DirSource sends extracted video frames from a directory to a Detector.
// Files are taken in name order and every interval-th file is analyzed; the
// k-th analyzed frame is stamped k*interval/fps seconds.
type DirSource struct {
	detector  Detector
	files     []string
	frameTime float64
	interval  int
	next      int
	processed int
}

// NewDirSource lists the image files under dir. fps <= 0 falls back to
// DefaultFPS and interval < 1 to 1.
func NewDirSource(dir string, fps float64, interval int, d Detector) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)

	if fps <= 0 {
		fps = DefaultFPS
	}
	if interval < 1 {
		interval = 1
	}
	return &DirSource{
		detector:  d,
		files:     files,
		frameTime: float64(interval) / fps,
		interval:  interval,
	}, nil
}

// Frames is the number of files that will be analyzed.
func (s *DirSource) Frames() int {
	return (len(s.files) + s.interval - 1) / s.interval
}

// Next reads the next analyzed frame and runs detection on it.
func (s *DirSource) Next(ctx context.Context) (landmark.FrameSample, error) {
	if err := ctx.Err(); err != nil {
		return landmark.FrameSample{}, err
	}
	if s.next >= len(s.files) {
		return landmark.FrameSample{}, io.EOF
	}
	path := s.files[s.next]
	s.next += s.interval

	t := float64(s.processed) * s.frameTime
	s.processed++

	data, err := os.ReadFile(path)
	if err != nil {
		return landmark.FrameSample{}, fmt.Errorf("read frame: %w", err)
	}
	sample, err := s.detector.Detect(ctx, data, t)
	if err != nil {
		return landmark.FrameSample{}, fmt.Errorf("%w: %s: %w", ErrDetectFailed, filepath.Base(path), err)
	}
	return sample, nil
}

// #endregion dir-source
