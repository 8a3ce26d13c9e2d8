package faceswap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/patrickmn/go-cache"

	ioutils "github.com/handiism/fooocus-batch/internal/io"
	"github.com/handiism/fooocus-batch/internal/model"
)

// Status is the result of an availability check.
type Status int

const (
	StatusUnknown Status = iota
	StatusAvailable
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Availability reports whether the engine can run. Err is a
// *model.EngineUnavailableError when Status is StatusUnavailable.
type Availability struct {
	Status Status
	Err    error
}

// Available reports whether Status is StatusAvailable.
func (a Availability) Available() bool {
	return a.Status == StatusAvailable
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for engine diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithImageService replaces the image codec.
func WithImageService(svc *ioutils.ImageService) Option {
	return func(e *Engine) {
		e.images = svc
	}
}

// Engine detects and swaps faces through a Runtime it owns.
type Engine struct {
	runtime Runtime
	images  *ioutils.ImageService
	logger  *slog.Logger

	// Source face detections keyed by path, size and modification time.
	sources *cache.Cache

	// Guarded by mu.
	loaded  bool
	loadErr error

	// mu serializes every call into runtime.
	mu sync.Mutex
}

// NewEngine creates an Engine around rt. A nil rt yields an engine that is
// always unavailable.
func NewEngine(rt Runtime, opts ...Option) *Engine {
	e := &Engine{
		runtime: rt,
		images:  ioutils.NewImageService(),
		logger:  slog.Default(),
		sources: cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsAvailable loads the runtime on first use and reports the outcome. Later
// calls return the recorded result without touching the runtime. A load
// that fails because ctx is done is not recorded, so a later call with a
// live context tries again.
func (e *Engine) IsAvailable(ctx context.Context) Availability {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		err := e.load(ctx)
		if err != nil && ctx.Err() != nil {
			return Availability{Status: StatusUnavailable, Err: &model.EngineUnavailableError{Err: err}}
		}
		e.loaded, e.loadErr = true, err
		if err == nil {
			e.logger.Info("face runtime loaded")
		}
	}

	if e.loadErr != nil {
		return Availability{Status: StatusUnavailable, Err: &model.EngineUnavailableError{Err: e.loadErr}}
	}
	return Availability{Status: StatusAvailable}
}

func (e *Engine) load(ctx context.Context) error {
	if e.runtime == nil {
		return errors.New("no face runtime configured")
	}
	return e.runtime.Load(ctx)
}

func (e *Engine) ensureAvailable(ctx context.Context) error {
	return e.IsAvailable(ctx).Err
}

// Detect returns the faces in img, possibly none.
func (e *Engine) Detect(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	if err := e.ensureAvailable(ctx); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("detect: nil image")
	}
	return e.detect(ctx, img)
}

// Swap composites source's face at sourceIndex onto target's face at
// targetIndex and returns a new image with target's dimensions.
//
// Indices outside the detected faces fall back to 0. If either image has no
// face a *model.NoFaceFoundError naming the side is returned. Neither input
// is modified.
func (e *Engine) Swap(ctx context.Context, target, source image.Image, targetIndex, sourceIndex int) (*image.RGBA, error) {
	if err := e.ensureAvailable(ctx); err != nil {
		return nil, err
	}
	if target == nil || source == nil {
		return nil, errors.New("swap: nil image")
	}

	targetFaces, err := e.detect(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("detect target faces: %w", err)
	}
	if len(targetFaces) == 0 {
		return nil, &model.NoFaceFoundError{Side: model.SideTarget}
	}

	sourceFaces, err := e.detect(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("detect source faces: %w", err)
	}
	if len(sourceFaces) == 0 {
		return nil, &model.NoFaceFoundError{Side: model.SideSource}
	}

	return e.swapFaces(ctx, target, targetFaces, sourceFaces, targetIndex, sourceIndex)
}

// Process runs one face swap task: it swaps the first source face onto the
// first target face, blends the result over the target by task.Strength and
// writes it to outputDir. It returns the written path.
//
// Nothing is written when the task fails.
func (e *Engine) Process(ctx context.Context, task model.FaceSwapTask, outputDir string) (string, error) {
	if err := e.ensureAvailable(ctx); err != nil {
		return "", err
	}

	sourceFaces, err := e.sourceFaces(ctx, task.SourceImagePath)
	if err != nil {
		return "", err
	}

	target, _, err := e.images.Load(task.TargetImagePath)
	if err != nil {
		return "", fmt.Errorf("load target %s: %w", task.TargetImagePath, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	targetFaces, err := e.detect(ctx, target)
	if err != nil {
		return "", fmt.Errorf("detect target faces: %w", err)
	}
	if len(targetFaces) == 0 {
		return "", &model.NoFaceFoundError{Side: model.SideTarget, Path: task.TargetImagePath}
	}

	swapped, err := e.swapFaces(ctx, target, targetFaces, sourceFaces, 0, 0)
	if err != nil {
		return "", err
	}
	result := Blend(e.images.ToRGBA(target), swapped, task.Strength)

	ext := e.images.OutputExtension(filepath.Ext(task.TargetImagePath))
	outPath := filepath.Join(outputDir, task.OutputPrefix+ext)
	if err := e.images.Save(outPath, result); err != nil {
		return "", fmt.Errorf("save %s: %w", outPath, err)
	}

	e.logger.Debug("face swap completed", "task_id", task.TaskID, "output", outPath, "strength", task.Strength)
	return outPath, nil
}

// sourceFaces loads and detects the source image once per file version.
func (e *Engine) sourceFaces(ctx context.Context, path string) ([]DetectedFace, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load source %s: %w", path, err)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if faces, ok := e.sources.Get(key); ok {
		return faces.([]DetectedFace), nil
	}

	source, _, err := e.images.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load source %s: %w", path, err)
	}
	faces, err := e.detect(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("detect source faces: %w", err)
	}
	if len(faces) == 0 {
		return nil, &model.NoFaceFoundError{Side: model.SideSource, Path: path}
	}

	e.sources.Set(key, faces, cache.NoExpiration)
	return faces, nil
}

func (e *Engine) detect(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	faces, err := e.runtime.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if faces == nil {
		faces = []DetectedFace{}
	}
	return faces, nil
}

func (e *Engine) swapFaces(ctx context.Context, target image.Image, targetFaces, sourceFaces []DetectedFace, targetIndex, sourceIndex int) (*image.RGBA, error) {
	targetIndex = e.clampIndex("target", targetIndex, len(targetFaces))
	sourceIndex = e.clampIndex("source", sourceIndex, len(sourceFaces))

	e.mu.Lock()
	out, err := e.runtime.Swap(ctx, target, targetFaces[targetIndex], sourceFaces[sourceIndex])
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("swap faces: %w", err)
	}
	if out == nil {
		return nil, errors.New("swap faces: runtime returned no image")
	}

	tb, ob := target.Bounds(), out.Bounds()
	if ob.Dx() != tb.Dx() || ob.Dy() != tb.Dy() {
		e.logger.Debug("rescaling runtime output", "got", ob.Size(), "want", tb.Size())
		return e.images.Resize(out, tb.Dx(), tb.Dy()), nil
	}
	return e.images.ToRGBA(out), nil
}

// clampIndex maps an out-of-range face index to 0.
func (e *Engine) clampIndex(side string, index, count int) int {
	if index >= 0 && index < count {
		return index
	}
	e.logger.Debug("face index out of range, using 0", "side", side, "index", index, "faces", count)
	return 0
}
