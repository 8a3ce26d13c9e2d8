package faceswap

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	httpclient "github.com/handiism/fooocus-batch/internal/http"
	ioutils "github.com/handiism/fooocus-batch/internal/io"
)

// DefaultRuntimeURL is where HTTPRuntime expects the face service when no
// URL is given.
const DefaultRuntimeURL = "http://127.0.0.1:7870"

// HTTPRuntime is a Runtime backed by a face analysis service.
//
// The service exposes:
//
//	GET  /health  -> 2xx once the detector and swapper are loaded
//	POST /detect  {"image": <base64 PNG>} -> {"faces": [DetectedFace...]}
//	POST /swap    {"image": ..., "target_face": {...}, "source_face": {...}}
//	              -> {"image": <base64 image>}
type HTTPRuntime struct {
	baseURL string
	client  *httpclient.Client
	images  *ioutils.ImageService
	limiter *rate.Limiter
	logger  *slog.Logger
}

// HTTPRuntimeOption configures an HTTPRuntime.
type HTTPRuntimeOption func(*HTTPRuntime)

// WithRateLimit caps requests per second. Zero or less disables the limit.
func WithRateLimit(perSecond float64) HTTPRuntimeOption {
	return func(r *HTTPRuntime) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *httpclient.Client) HTTPRuntimeOption {
	return func(r *HTTPRuntime) {
		r.client = c
	}
}

// WithRuntimeLogger sets the logger for request diagnostics.
func WithRuntimeLogger(logger *slog.Logger) HTTPRuntimeOption {
	return func(r *HTTPRuntime) {
		r.logger = logger
	}
}

// NewHTTPRuntime creates a runtime for the service at baseURL.
func NewHTTPRuntime(baseURL string, opts ...HTTPRuntimeOption) *HTTPRuntime {
	if baseURL == "" {
		baseURL = DefaultRuntimeURL
	}
	r := &HTTPRuntime{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpclient.NewClient(0),
		images:  ioutils.NewImageService(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Faces []DetectedFace `json:"faces"`
}

type swapRequest struct {
	Image      string       `json:"image"`
	TargetFace DetectedFace `json:"target_face"`
	SourceFace DetectedFace `json:"source_face"`
}

type swapResponse struct {
	Image string `json:"image"`
}

// Load checks that the service is up and has its models loaded.
func (r *HTTPRuntime) Load(ctx context.Context) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	if _, err := r.client.Get(ctx, r.baseURL+"/health"); err != nil {
		return fmt.Errorf("face service at %s: %w", r.baseURL, err)
	}
	r.logger.Debug("face service healthy", "url", r.baseURL)
	return nil
}

// Detect sends img to /detect.
func (r *HTTPRuntime) Detect(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	encoded, err := r.encode(img)
	if err != nil {
		return nil, err
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := r.client.PostJSON(ctx, r.baseURL+"/detect", detectRequest{Image: encoded}, &resp); err != nil {
		return nil, err
	}
	r.logger.Debug("faces detected", "count", len(resp.Faces))
	return resp.Faces, nil
}

// Swap sends target and both faces to /swap and decodes the result.
func (r *HTTPRuntime) Swap(ctx context.Context, target image.Image, targetFace, sourceFace DetectedFace) (image.Image, error) {
	encoded, err := r.encode(target)
	if err != nil {
		return nil, err
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	var resp swapResponse
	req := swapRequest{Image: encoded, TargetFace: targetFace, SourceFace: sourceFace}
	if err := r.client.PostJSON(ctx, r.baseURL+"/swap", req, &resp); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("decode swap result: %w", err)
	}
	out, _, err := r.images.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode swap result: %w", err)
	}
	return out, nil
}

func (r *HTTPRuntime) encode(img image.Image) (string, error) {
	data, err := r.images.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (r *HTTPRuntime) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
