package faceswap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ioutils "github.com/handiism/fooocus-batch/internal/io"
	"github.com/handiism/fooocus-batch/internal/model"
)

func TestEngine_IsAvailable_LoadsOnce(t *testing.T) {
	rt := &fakeRuntime{}
	engine := NewEngine(rt)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		avail := engine.IsAvailable(ctx)
		assert.True(t, avail.Available())
		assert.Equal(t, StatusAvailable, avail.Status)
		assert.NoError(t, avail.Err)
	}
	_, err := engine.Detect(ctx, faceImage(1))
	require.NoError(t, err)

	assert.Equal(t, 1, rt.loads)
}

func TestEngine_IsAvailable_RetriesAfterCancelledLoad(t *testing.T) {
	rt := &fakeRuntime{}
	engine := NewEngine(rt)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	avail := engine.IsAvailable(ctx)
	assert.False(t, avail.Available())
	assert.ErrorIs(t, avail.Err, context.Canceled)

	avail = engine.IsAvailable(context.Background())
	assert.True(t, avail.Available())
	assert.Equal(t, 1, rt.loads)
}

func TestEngine_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		rt   Runtime
	}{
		{"load fails", &fakeRuntime{loadErr: errors.New("insightface missing")}},
		{"no runtime", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(tt.rt)
			ctx := context.Background()

			avail := engine.IsAvailable(ctx)
			assert.False(t, avail.Available())
			assert.Equal(t, StatusUnavailable, avail.Status)

			var unavailable *model.EngineUnavailableError
			assert.True(t, errors.As(avail.Err, &unavailable))

			_, err := engine.Detect(ctx, faceImage(1))
			assert.True(t, errors.As(err, &unavailable), "Detect: %v", err)

			_, err = engine.Swap(ctx, faceImage(1), faceImage(1), 0, 0)
			assert.True(t, errors.As(err, &unavailable), "Swap: %v", err)

			_, err = engine.Process(ctx, model.NewFaceSwapTask(1, "a.png", "face.png", 1), t.TempDir())
			assert.True(t, errors.As(err, &unavailable), "Process: %v", err)

			if rt, ok := tt.rt.(*fakeRuntime); ok {
				assert.Equal(t, 1, rt.loads)
				assert.Zero(t, rt.detects, "no partial work once unavailable")
			}
		})
	}
}

func TestEngine_Detect(t *testing.T) {
	engine := NewEngine(&fakeRuntime{})
	ctx := context.Background()

	faces, err := engine.Detect(ctx, faceImage(0))
	require.NoError(t, err)
	assert.NotNil(t, faces)
	assert.Empty(t, faces, "no face is a valid result")

	faces, err = engine.Detect(ctx, faceImage(3))
	require.NoError(t, err)
	assert.Len(t, faces, 3)
	assert.Equal(t, image.Rect(2, 0, 3, 1), faces[2].Rect())
}

func TestEngine_Swap_NoFace(t *testing.T) {
	engine := NewEngine(&fakeRuntime{})
	ctx := context.Background()

	tests := []struct {
		name           string
		target, source image.Image
		wantSide       string
	}{
		{"target without face", faceImage(0), faceImage(1), model.SideTarget},
		{"source without face", faceImage(1), faceImage(0), model.SideSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := engine.Swap(ctx, tt.target, tt.source, 0, 0)

			assert.Nil(t, out)
			var noFace *model.NoFaceFoundError
			require.True(t, errors.As(err, &noFace), "expected NoFaceFoundError, got %v", err)
			assert.Equal(t, tt.wantSide, noFace.Side)
		})
	}
}

func TestEngine_Swap_IndexClamp(t *testing.T) {
	rt := &fakeRuntime{}
	engine := NewEngine(rt)
	ctx := context.Background()
	target, source := faceImage(2), faceImage(3)

	base, err := engine.Swap(ctx, target, source, 0, 0)
	require.NoError(t, err)
	clamped, err := engine.Swap(ctx, target, source, 5, 7)
	require.NoError(t, err)
	negative, err := engine.Swap(ctx, target, source, -1, 0)
	require.NoError(t, err)
	inRange, err := engine.Swap(ctx, target, source, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, base.Pix, clamped.Pix)
	assert.Equal(t, base.Pix, negative.Pix)
	assert.Equal(t, []int{0, 0, 0, 1}, rt.swapTargets)
	assert.Equal(t, []int{0, 0, 0, 2}, rt.swapSources)
	assert.NotNil(t, inRange)
}

func TestEngine_Swap_NewBuffer(t *testing.T) {
	engine := NewEngine(&fakeRuntime{})
	target := faceImage(1)
	before := append([]uint8(nil), target.Pix...)

	out, err := engine.Swap(context.Background(), target, faceImage(1), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, before, target.Pix, "target must not be modified")
	assert.Equal(t, swapColor, out.RGBAAt(0, 0))
	assert.Equal(t, target.Bounds(), out.Bounds())
}

func TestEngine_Swap_RescalesRuntimeOutput(t *testing.T) {
	engine := NewEngine(&fakeRuntime{outSize: image.Pt(12, 8)})

	out, err := engine.Swap(context.Background(), faceImage(1), faceImage(1), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), out.Bounds())
}

func TestEngine_Process(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	writePNG(t, source, faceImage(1))

	tests := []struct {
		name     string
		target   string
		strength float64
		wantFile string
		wantG    uint8
	}{
		{"full strength png", "a.png", 1, "faceswapped_a.png", 200},
		{"half strength", "b.png", 0.5, "faceswapped_b.png", 120},
		{"zero strength keeps original", "c.png", 0, "faceswapped_c.png", 40},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(&fakeRuntime{})
			targetPath := filepath.Join(dir, "targets", tt.target)
			writePNG(t, targetPath, faceImage(1))
			outDir := filepath.Join(dir, "targets", "faceswapped")

			task := model.NewFaceSwapTask(i+1, targetPath, source, tt.strength)
			out, err := engine.Process(context.Background(), task, outDir)

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(outDir, tt.wantFile), out)

			img, _, err := ioutils.NewImageService().Load(out)
			require.NoError(t, err)
			_, g, _, _ := img.At(0, 0).RGBA()
			assert.Equal(t, tt.wantG, uint8(g>>8))
		})
	}
}

func TestEngine_Process_WebPTarget(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	writePNG(t, source, faceImage(1))
	target := filepath.Join(dir, "targets", "a.webp")
	writeWebP(t, target)
	outDir := filepath.Join(dir, "targets", "faceswapped")

	engine := NewEngine(&fakeRuntime{minFaces: 1})
	out, err := engine.Process(context.Background(), model.NewFaceSwapTask(1, target, source, 1), outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "faceswapped_a.webp.png"), out)

	img, format, err := ioutils.NewImageService().Load(out)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
}

func TestEngine_Process_SameStemDistinctOutputs(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	writePNG(t, source, faceImage(1))
	pngTarget := filepath.Join(dir, "targets", "a.png")
	webpTarget := filepath.Join(dir, "targets", "a.webp")
	writePNG(t, pngTarget, faceImage(1))
	writeWebP(t, webpTarget)
	outDir := filepath.Join(dir, "targets", "faceswapped")

	engine := NewEngine(&fakeRuntime{minFaces: 1})
	ctx := context.Background()
	pngOut, err := engine.Process(ctx, model.NewFaceSwapTask(1, pngTarget, source, 1), outDir)
	require.NoError(t, err)
	webpOut, err := engine.Process(ctx, model.NewFaceSwapTask(2, webpTarget, source, 1), outDir)
	require.NoError(t, err)

	assert.NotEqual(t, pngOut, webpOut)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// The png output still has the png target's dimensions.
	img, _, err := ioutils.NewImageService().Load(pngOut)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
}

func TestEngine_Process_JPEGKeepsExtension(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	writePNG(t, source, faceImage(1))

	svc := ioutils.NewImageService()
	target := filepath.Join(dir, "photo.JPG")
	require.NoError(t, svc.Save(target, faceImage(1)))

	engine := NewEngine(&fakeRuntime{})
	out, err := engine.Process(context.Background(), model.NewFaceSwapTask(1, target, source, 1), filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "faceswapped_photo.JPG"), out)

	_, format, err := svc.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestEngine_Process_NoFaceWritesNothing(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	target := filepath.Join(dir, "empty.png")
	writePNG(t, source, faceImage(1))
	writePNG(t, target, faceImage(0))
	outDir := filepath.Join(dir, "faceswapped")

	_, err := NewEngine(&fakeRuntime{}).Process(context.Background(), model.NewFaceSwapTask(1, target, source, 1), outDir)

	var noFace *model.NoFaceFoundError
	require.True(t, errors.As(err, &noFace), "expected NoFaceFoundError, got %v", err)
	assert.Equal(t, model.SideTarget, noFace.Side)
	assert.Equal(t, target, noFace.Path)
	_, statErr := os.Stat(filepath.Join(outDir, "faceswapped_empty.png"))
	assert.True(t, os.IsNotExist(statErr), "no output file on failure")
}

func TestEngine_Process_SourceWithoutFace(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	target := filepath.Join(dir, "a.png")
	writePNG(t, source, faceImage(0))
	writePNG(t, target, faceImage(1))

	_, err := NewEngine(&fakeRuntime{}).Process(context.Background(), model.NewFaceSwapTask(1, target, source, 1), dir)

	var noFace *model.NoFaceFoundError
	require.True(t, errors.As(err, &noFace), "expected NoFaceFoundError, got %v", err)
	assert.Equal(t, model.SideSource, noFace.Side)
}

func TestEngine_Process_UndecodableTarget(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	target := filepath.Join(dir, "broken.png")
	writePNG(t, source, faceImage(1))
	require.NoError(t, os.WriteFile(target, []byte("not an image"), 0644))

	_, err := NewEngine(&fakeRuntime{}).Process(context.Background(), model.NewFaceSwapTask(1, target, source, 1), dir)

	assert.ErrorContains(t, err, "broken.png")
}

func TestEngine_Process_CachesSourceAndSerializes(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "face.png")
	writePNG(t, source, faceImage(1))

	rt := &fakeRuntime{}
	engine := NewEngine(rt)
	ctx := context.Background()
	require.True(t, engine.IsAvailable(ctx).Available())

	// Prime the source cache so the count below is exact.
	first := filepath.Join(dir, "t0.png")
	writePNG(t, first, faceImage(1))
	_, err := engine.Process(ctx, model.NewFaceSwapTask(1, first, source, 1), filepath.Join(dir, "out"))
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		target := filepath.Join(dir, fmt.Sprintf("t%d.png", i+1))
		writePNG(t, target, faceImage(1))
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			_, errs[i] = engine.Process(ctx, model.NewFaceSwapTask(i+2, target, source, 1), filepath.Join(dir, "out"))
		}(i, target)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1+(n+1), rt.detects, "source detected once, each target once")
	assert.False(t, rt.overlap.Load(), "runtime calls must not overlap")
}
