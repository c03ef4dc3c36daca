// Package label defines the per-frame classification labels shared by the
// gaze and head-pose classifiers and the interval logs.
package label

import (
	"errors"
	"fmt"
	"strings"
)

// #region label

// Label is a per-frame classification. Directional labels are "center" or a
// space-joined horizontal and vertical component such as "left up".
type Label string

const (
	Center Label = "center"
	Left   Label = "left"
	Right  Label = "right"
	Up     Label = "up"
	Down   Label = "down"
	Blink  Label = "blink"

	NotReady      Label = "not_ready"
	Calibrating   Label = "calibrating"
	Recalibrating Label = "recalibrating"
)

// ErrUnknown is returned by Parse for strings that are not a valid label.
var ErrUnknown = errors.New("unknown label")

// Compose joins a horizontal and vertical component. Empty components are
// omitted; two empty components yield Center.
func Compose(horizontal, vertical Label) Label {
	switch {
	case horizontal == "" && vertical == "":
		return Center
	case horizontal == "":
		return vertical
	case vertical == "":
		return horizontal
	}
	return Label(string(horizontal) + " " + string(vertical))
}

// Split returns the horizontal and vertical components. Center and
// non-directional labels split into two empty components.
func (l Label) Split() (horizontal, vertical Label) {
	for _, part := range strings.Fields(string(l)) {
		switch Label(part) {
		case Left, Right:
			horizontal = Label(part)
		case Up, Down:
			vertical = Label(part)
		}
	}
	return horizontal, vertical
}

// IsDirectional reports whether l is Center or a composition of direction
// components. Status labels and Blink are not directional.
func (l Label) IsDirectional() bool {
	if l == Center {
		return true
	}
	_, err := Parse(string(l))
	return err == nil && l != Blink && !l.IsStatus()
}

// IsStatus reports whether l describes calibration state.
func (l Label) IsStatus() bool {
	return l == NotReady || l == Calibrating || l == Recalibrating
}

// Parse validates s as a label.
func Parse(s string) (Label, error) {
	l := Label(s)
	switch l {
	case Center, Blink, NotReady, Calibrating, Recalibrating:
		return l, nil
	}
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return "", fmt.Errorf("parse label %q: %w", s, ErrUnknown)
	}
	h, v := l.Split()
	if Compose(h, v) != l || (h == "" && v == "") {
		return "", fmt.Errorf("parse label %q: %w", s, ErrUnknown)
	}
	return l, nil
}

// #endregion label
