package faceswap

import (
	"context"
	"image"
	"math"
)

// DetectedFace is one face found by the runtime.
type DetectedFace struct {
	// BBox is x1, y1, x2, y2 in image pixels.
	BBox [4]float64 `json:"bbox"`

	// Landmarks are optional keypoints, (x, y) pairs.
	Landmarks [][2]float64 `json:"landmarks,omitempty"`

	// Confidence is the detection score.
	Confidence float64 `json:"score"`

	// Embedding is runtime-specific identity data handed back to Swap.
	Embedding []float32 `json:"embedding,omitempty"`
}

// Rect returns the bounding box rounded outward to whole pixels.
func (f DetectedFace) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(f.BBox[0])),
		int(math.Floor(f.BBox[1])),
		int(math.Ceil(f.BBox[2])),
		int(math.Ceil(f.BBox[3])),
	)
}

// Runtime is the external face detection and swap model.
//
// Implementations need not be safe for concurrent use; the Engine never
// calls a Runtime from more than one goroutine at a time.
type Runtime interface {
	// Load prepares the models. It is called once per Engine.
	Load(ctx context.Context) error

	// Detect returns the faces in img. No faces is an empty result, not an
	// error.
	Detect(ctx context.Context, img image.Image) ([]DetectedFace, error)

	// Swap replaces targetFace in target with sourceFace and returns the
	// full composited image.
	Swap(ctx context.Context, target image.Image, targetFace, sourceFace DetectedFace) (image.Image, error)
}
