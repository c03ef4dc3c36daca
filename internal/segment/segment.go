// Package segment turns a stream of per-frame classifications into
// contiguous, non-overlapping intervals.
package segment

// #region types

// Interval is one closed run of identical classifications.
// Start <= End and Index is strictly increasing within a stream.
type Interval[K comparable] struct {
	Start float64
	End   float64
	Value K
	Index int
}

// Duration returns End - Start.
func (iv Interval[K]) Duration() float64 { return iv.End - iv.Start }

// Segmenter is a run-length encoder over timestamped values. At most one
// interval is open at a time. The zero value is not usable; call New.
type Segmenter[K comparable] struct {
	active  bool
	current K
	start   float64
	next    int
	closed  []Interval[K]
}

// New creates an idle Segmenter whose first interval gets index 1.
func New[K comparable]() *Segmenter[K] {
	return &Segmenter[K]{next: 1}
}

// #endregion types

// #region update

// Update records value v at time t. When v differs from the open value the
// open interval is closed at t and returned, and a new one opens at t.
// Repeated values extend the open interval.
func (s *Segmenter[K]) Update(t float64, v K) (Interval[K], bool) {
	if !s.active {
		s.open(t, v)
		return Interval[K]{}, false
	}
	if v == s.current {
		return Interval[K]{}, false
	}
	iv := s.close(t)
	s.open(t, v)
	return iv, true
}

// ForceClose closes the open interval at t without opening another.
// It is a no-op when nothing is open.
func (s *Segmenter[K]) ForceClose(t float64) (Interval[K], bool) {
	if !s.active {
		return Interval[K]{}, false
	}
	return s.close(t), true
}

func (s *Segmenter[K]) open(t float64, v K) {
	s.active = true
	s.current = v
	s.start = t
}

func (s *Segmenter[K]) close(t float64) Interval[K] {
	end := t
	if end < s.start {
		end = s.start
	}
	iv := Interval[K]{Start: s.start, End: end, Value: s.current, Index: s.next}
	s.next++
	s.active = false
	s.closed = append(s.closed, iv)
	return iv
}

// #endregion update

// #region query

// Active returns the open value and its start time.
func (s *Segmenter[K]) Active() (v K, start float64, ok bool) {
	return s.current, s.start, s.active
}

// Intervals returns a copy of every closed interval in emission order.
func (s *Segmenter[K]) Intervals() []Interval[K] {
	out := make([]Interval[K], len(s.closed))
	copy(out, s.closed)
	return out
}

// #endregion query
