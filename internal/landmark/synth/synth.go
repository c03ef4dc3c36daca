// Package synth builds deterministic face meshes from a handful of pose
// parameters. Replay fixtures and tests describe frames with it instead of
// carrying full 478-point meshes.
package synth

import "github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"

// #region layout

const (
	eyeY         = 0.45
	leftEyeX     = 0.42
	rightEyeX    = 0.58
	eyeHalfWidth = 0.04
	neckY        = 0.8
	neckHalf     = 0.1
	templeY      = 0.5
)

// Lid paths, corner to corner. Top paths include both corners.
var (
	leftTop     = []int{33, 246, 161, 160, 159, 158, 157, 173, 133}
	leftBottom  = []int{155, 154, 153, 145, 144, 163, 7}
	rightTop    = []int{263, 466, 388, 387, 386, 385, 384, 398, 362}
	rightBottom = []int{382, 381, 380, 374, 373, 390, 249}
)

// #endregion layout

// #region face

// Face describes a synthetic head pose.
type Face struct {
	NoseX      float64 `json:"nose_x"`
	NoseY      float64 `json:"nose_y"`
	EyeHeight  float64 `json:"eye_height"`  // lid opening, both eyes
	IrisShiftX float64 `json:"iris_shift_x"` // iris offset from eye center
	IrisShiftY float64 `json:"iris_shift_y"`
	FaceWidth  float64 `json:"face_width"` // temple to temple
	NeckX      float64 `json:"neck_x"`
}

// Neutral is a frontal, open-eyed face looking at the camera.
func Neutral() Face {
	return Face{
		NoseX:     0.5,
		NoseY:     0.55,
		EyeHeight: 0.05,
		FaceWidth: 0.3,
		NeckX:     0.5,
	}
}

// Landmarks renders the face as a full mesh.
func (f Face) Landmarks() []landmark.Point {
	lm := make([]landmark.Point, landmark.MeshSize)
	for i := range lm {
		lm[i] = landmark.Point{X: 0.5, Y: 0.5}
	}

	placeEye(lm, leftTop, leftBottom, leftEyeX, f.EyeHeight, 1)
	placeEye(lm, rightTop, rightBottom, rightEyeX, f.EyeHeight, -1)

	lm[landmark.LeftIrisCenter] = landmark.Point{X: leftEyeX + f.IrisShiftX, Y: eyeY + f.IrisShiftY}
	lm[landmark.RightIrisCenter] = landmark.Point{X: rightEyeX + f.IrisShiftX, Y: eyeY + f.IrisShiftY}

	lm[landmark.NoseTip] = landmark.Point{X: f.NoseX, Y: f.NoseY}
	lm[landmark.Chin] = landmark.Point{X: f.NoseX, Y: f.NoseY + 0.2}

	for _, i := range landmark.TempleLeft {
		lm[i] = landmark.Point{X: 0.5 + f.FaceWidth/2, Y: templeY}
	}
	for _, i := range landmark.TempleRight {
		lm[i] = landmark.Point{X: 0.5 - f.FaceWidth/2, Y: templeY}
	}
	for _, i := range landmark.NeckLeft {
		lm[i] = landmark.Point{X: f.NeckX - neckHalf, Y: neckY}
	}
	for _, i := range landmark.NeckRight {
		lm[i] = landmark.Point{X: f.NeckX + neckHalf, Y: neckY}
	}
	return lm
}

// Sample wraps the mesh as a single-face frame at t.
func (f Face) Sample(t float64) landmark.FrameSample {
	return landmark.FrameSample{Timestamp: t, FaceCount: 1, Landmarks: f.Landmarks()}
}

// placeEye lays the top path from one corner to the other in 0.01 steps and
// the bottom path back between them. dir is +1 when the top path runs
// left to right.
func placeEye(lm []landmark.Point, top, bottom []int, cx, height, dir float64) {
	start := cx - dir*eyeHalfWidth
	step := dir * 2 * eyeHalfWidth / float64(len(top)-1)
	for i, idx := range top {
		y := eyeY - height/2
		if i == 0 || i == len(top)-1 {
			y = eyeY
		}
		lm[idx] = landmark.Point{X: start + step*float64(i), Y: y}
	}
	end := cx + dir*eyeHalfWidth
	for i, idx := range bottom {
		lm[idx] = landmark.Point{X: end - step*float64(i+1), Y: eyeY + height/2}
	}
}

// #endregion face
