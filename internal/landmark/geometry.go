package landmark

import (
	"math"
	"sort"
)

// #region helpers

func dist2(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func dist3(a, b Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func meanPoint(lm []Point, idx []int) Point {
	var p Point
	for _, i := range idx {
		p.X += lm[i].X
		p.Y += lm[i].Y
		p.Z += lm[i].Z
	}
	n := float64(len(idx))
	return Point{X: p.X / n, Y: p.Y / n, Z: p.Z / n}
}

func meanY(lm []Point, idx []int) float64 {
	var s float64
	for _, i := range idx {
		s += lm[i].Y
	}
	return s / float64(len(idx))
}

func median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

// #endregion helpers

// #region eye

// EyeRegion computes the bounding box of an eye. Horizontal bounds are the
// medians of the lower and upper halves of the sorted contour x values,
// widened by 10% of the eye width on each side. The top is raised by 20% of
// the eye height and the bottom lowered by 10%.
func EyeRegion(lm []Point, e Eye) Region {
	ix := eyes[e]
	xs := make([]float64, 0, len(ix.contour))
	for _, i := range ix.contour {
		xs = append(xs, lm[i].X)
	}
	sort.Float64s(xs)
	half := len(xs) / 2
	left := median(xs[:half])
	right := median(xs[half:])

	upper := meanY(lm, ix.upper)
	lower := meanY(lm, ix.lower)

	w := right - left
	h := lower - upper
	return Region{
		Left:   left - w*0.1,
		Right:  right + w*0.1,
		Top:    upper - h*0.2,
		Bottom: lower + h*0.1,
	}
}

// EyeHeight is the mean lower-lid y minus the mean upper-lid y.
func EyeHeight(lm []Point, e Eye) float64 {
	ix := eyes[e]
	return meanY(lm, ix.lower) - meanY(lm, ix.upper)
}

// EyeAspectRatio is (|v1| + |v2|) / (2 |h|) over the eye's lid pairs.
// A degenerate horizontal span yields 0.
func EyeAspectRatio(lm []Point, e Eye) float64 {
	ix := eyes[e]
	h := dist2(lm[ix.h[0]], lm[ix.h[1]])
	if h == 0 {
		return 0
	}
	v1 := dist2(lm[ix.v1[0]], lm[ix.v1[1]])
	v2 := dist2(lm[ix.v2[0]], lm[ix.v2[1]])
	return (v1 + v2) / (2 * h)
}

// MeanEyeAspectRatio averages both eyes.
func MeanEyeAspectRatio(lm []Point) float64 {
	return (EyeAspectRatio(lm, LeftEye) + EyeAspectRatio(lm, RightEye)) / 2
}

// Iris returns the iris center of an eye.
func Iris(lm []Point, e Eye) Vec2 {
	p := lm[eyes[e].iris]
	return Vec2{X: p.X, Y: p.Y}
}

// IrisRatio is the horizontal iris position inside the eye region, 0 at the
// left bound and 1 at the right. ok is false for a zero-width region.
func IrisRatio(lm []Point, e Eye) (ratio float64, ok bool) {
	r := EyeRegion(lm, e)
	w := r.Width()
	if w <= 0 {
		return 0, false
	}
	return (lm[eyes[e].iris].X - r.Left) / w, true
}

// #endregion eye

// #region face

// Nose returns the nose-tip position.
func Nose(lm []Point) Vec2 {
	return Vec2{X: lm[NoseTip].X, Y: lm[NoseTip].Y}
}

// FaceWidth is the 3D distance between the two temple cluster means.
func FaceWidth(lm []Point) float64 {
	return dist3(meanPoint(lm, TempleLeft), meanPoint(lm, TempleRight))
}

// NeckPosition is the midpoint of the two neck cluster means.
func NeckPosition(lm []Point) Vec2 {
	l := meanPoint(lm, NeckLeft)
	r := meanPoint(lm, NeckRight)
	return Vec2{X: (l.X + r.X) / 2, Y: (l.Y + r.Y) / 2}
}

// SymmetryRatio is the horizontal nose offset from the eye-corner midpoint,
// relative to the eye-corner distance. +Inf when the corners coincide.
func SymmetryRatio(lm []Point) float64 {
	l, r := lm[LeftEyeOuter], lm[RightEyeOuter]
	d := dist2(l, r)
	if d == 0 {
		return math.Inf(1)
	}
	center := (l.X + r.X) / 2
	return math.Abs(lm[NoseTip].X-center) / d
}

// IsSymmetric reports whether the face is frontal within maxRatio.
func IsSymmetric(lm []Point, maxRatio float64) bool {
	return SymmetryRatio(lm) < maxRatio
}

// #endregion face
