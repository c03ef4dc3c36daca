package landmark

// #region indices

// Mesh indices used by the analyzers. The detector emits the 478-point face
// mesh with refined iris landmarks; indices refer to that layout.
const (
	NoseTip         = 1
	Chin            = 199
	LeftEyeOuter    = 33
	LeftEyeInner    = 133
	RightEyeOuter   = 263
	RightEyeInner   = 362
	LeftIrisCenter  = 468
	RightIrisCenter = 473

	// MeshSize is the landmark count of a refined face mesh.
	MeshSize = 478
)

// Neck and temple clusters. Each cluster is reduced to its mean point.
var (
	NeckLeft    = []int{149, 150, 136, 172, 58, 132}
	NeckRight   = []int{378, 379, 365, 397, 288, 361}
	TempleLeft  = []int{447, 366, 401, 435, 367, 364, 394}
	TempleRight = []int{227, 137, 177, 215, 138, 135, 169}
)

// #endregion indices

// #region types

// Point is one normalized landmark. X and Y are in [0,1] image coordinates
// with Y growing downward; Z is relative depth.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec2 is a 2D position in normalized image coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FrameSample is one detector result for a frame at video time Timestamp
// (seconds). Landmarks is nil when no mesh was produced.
type FrameSample struct {
	Timestamp float64 `json:"t"`
	FaceCount int     `json:"face_count"`
	Landmarks []Point `json:"landmarks,omitempty"`
}

// HasMesh reports whether the sample carries a complete face mesh.
func (s FrameSample) HasMesh() bool {
	return len(s.Landmarks) >= MeshSize
}

// Eye selects one eye. Left and right follow mesh naming, not the viewer.
type Eye int

const (
	LeftEye Eye = iota
	RightEye
)

func (e Eye) String() string {
	if e == LeftEye {
		return "left"
	}
	return "right"
}

// eyeIndices groups the mesh points that describe one eye.
type eyeIndices struct {
	upper   []int
	lower   []int
	contour []int
	// aspect-ratio pairs: two vertical pairs and the horizontal corners
	v1, v2, h [2]int
	iris      int
}

var eyes = map[Eye]eyeIndices{
	LeftEye: {
		upper:   []int{159, 160, 161, 246},
		lower:   []int{145, 144, 163, 7},
		contour: []int{33, 246, 161, 160, 159, 158, 157, 173, 133, 155, 154, 153, 145, 144, 163, 7},
		v1:      [2]int{159, 145},
		v2:      [2]int{158, 153},
		h:       [2]int{LeftEyeOuter, LeftEyeInner},
		iris:    LeftIrisCenter,
	},
	RightEye: {
		upper:   []int{386, 387, 388, 466},
		lower:   []int{374, 373, 390, 249},
		contour: []int{263, 466, 388, 387, 386, 385, 384, 398, 362, 382, 381, 380, 374, 373, 390, 249},
		v1:      [2]int{386, 374},
		v2:      [2]int{385, 380},
		h:       [2]int{RightEyeOuter, RightEyeInner},
		iris:    RightIrisCenter,
	},
}

// EyeContour returns the ordered contour indices for an eye.
func EyeContour(e Eye) []int {
	return append([]int(nil), eyes[e].contour...)
}

// Region is an axis-aligned eye box in normalized coordinates.
type Region struct {
	Left, Right, Top, Bottom float64
}

// Width returns Right - Left.
func (r Region) Width() float64 { return r.Right - r.Left }

// #endregion types
