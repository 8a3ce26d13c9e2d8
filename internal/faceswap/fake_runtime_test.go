package faceswap

import (
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var swapColor = color.RGBA{0, 200, 0, 255}

// fakeRuntime reports one face per 50 units of red in pixel (0, 0).
// Face i has BBox[0] == i so swaps can be traced back to an index.
// minFaces raises the count for images whose colors are not chosen by the
// test, such as decoded fixtures.
type fakeRuntime struct {
	loadErr  error
	outSize  image.Point
	minFaces int

	mu          sync.Mutex
	loads       int
	detects     int
	swapTargets []int
	swapSources []int

	inFlight int32
	overlap  atomic.Bool
}

func (f *fakeRuntime) enter() func() {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	return func() { atomic.AddInt32(&f.inFlight, -1) }
}

func (f *fakeRuntime) Load(ctx context.Context) error {
	defer f.enter()()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.loadErr
}

func (f *fakeRuntime) Detect(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	defer f.enter()()
	f.mu.Lock()
	f.detects++
	f.mu.Unlock()

	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	count := max((int(r>>8)+25)/50, f.minFaces)
	var faces []DetectedFace
	for i := 0; i < count; i++ {
		faces = append(faces, DetectedFace{BBox: [4]float64{float64(i), 0, float64(i + 1), 1}, Confidence: 0.9})
	}
	return faces, nil
}

func (f *fakeRuntime) Swap(ctx context.Context, target image.Image, targetFace, sourceFace DetectedFace) (image.Image, error) {
	defer f.enter()()
	f.mu.Lock()
	f.swapTargets = append(f.swapTargets, int(targetFace.BBox[0]))
	f.swapSources = append(f.swapSources, int(sourceFace.BBox[0]))
	f.mu.Unlock()

	size := target.Bounds().Size()
	if f.outSize != (image.Point{}) {
		size = f.outSize
	}
	return solidImage(size.X, size.Y, swapColor), nil
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// faceImage returns an image the fake runtime sees as containing faces faces.
func faceImage(faces int) *image.RGBA {
	return solidImage(6, 4, color.RGBA{uint8(faces * 50), 40, 60, 255})
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// pixelWebP is a 1x1 lossless (VP8L) WebP image.
const pixelWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func writeWebP(t *testing.T, path string) {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(pixelWebP)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}
