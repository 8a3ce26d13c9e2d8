package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// PromptLine is a single prompt read from a prompt file.
type PromptLine string

// Task id and output naming formats.
const (
	GenerationTaskIDFormat = "batch_%03d"
	FaceSwapTaskIDFormat   = "faceswap_%03d"
	FaceSwapOutputPrefix   = "faceswapped_"
)

// Defaults the external generator expects for fields the batch config does
// not expose.
const (
	DefaultImageCount   = 1
	DefaultOutputFormat = "png"
)

// FaceSwapSettings tells the generator whether to inject the model face.
type FaceSwapSettings struct {
	Enabled     bool   `json:"enabled"`
	SourceImage string `json:"source_image,omitempty"`
}

// ImagePromptSettings configures reference-image conditioning.
type ImagePromptSettings struct {
	Enabled     bool    `json:"enabled"`
	SourceImage string  `json:"source_image,omitempty"`
	Strength    float64 `json:"strength"`
}

// GenerationTask is a fully parameterized unit of work for the external
// generator. Output images are expected to be tagged with TaskID.
type GenerationTask struct {
	TaskID         string              `json:"task_id"`
	Prompt         string              `json:"prompt"`
	NegativePrompt string              `json:"negative_prompt"`
	AspectRatio    string              `json:"aspect_ratio"`
	ImageCount     int                 `json:"image_count"`
	Steps          int                 `json:"steps"`
	CFGScale       float64             `json:"cfg_scale"`
	Sampler        string              `json:"sampler"`
	Scheduler      string              `json:"scheduler"`
	Seed           int64               `json:"seed"`
	FaceSwap       FaceSwapSettings    `json:"face_swap"`
	ImagePrompt    ImagePromptSettings `json:"image_prompt"`
	OutputFormat   string              `json:"output_format"`
	SaveMetadata   bool                `json:"save_metadata"`
}

// NewGenerationTask creates a task for the prompt at the 1-based index with
// the image count, output format and metadata defaults filled in.
func NewGenerationTask(index int, prompt PromptLine) GenerationTask {
	return GenerationTask{
		TaskID:       GenerationTaskID(index),
		Prompt:       string(prompt),
		ImageCount:   DefaultImageCount,
		OutputFormat: DefaultOutputFormat,
		SaveMetadata: true,
	}
}

// GenerationTaskID returns the id for the 1-based prompt index.
func GenerationTaskID(index int) string {
	return fmt.Sprintf(GenerationTaskIDFormat, index)
}

// FaceSwapTask pairs one target image with the source face image.
type FaceSwapTask struct {
	TaskID          string  `json:"task_id"`
	TargetImagePath string  `json:"target_image_path"`
	SourceImagePath string  `json:"source_image_path"`
	Strength        float64 `json:"strength"`
	OutputPrefix    string  `json:"output_prefix"`
}

// NewFaceSwapTask creates a task for the target at the 1-based index.
// OutputPrefix is derived from the target's file stem so re-runs overwrite
// the same output instead of piling up copies.
func NewFaceSwapTask(index int, targetPath, sourcePath string, strength float64) FaceSwapTask {
	return FaceSwapTask{
		TaskID:          fmt.Sprintf(FaceSwapTaskIDFormat, index),
		TargetImagePath: targetPath,
		SourceImagePath: sourcePath,
		Strength:        strength,
		OutputPrefix:    FaceSwapOutputPrefix + fileStem(targetPath),
	}
}

// TargetFileName returns the base name of the target image.
func (t FaceSwapTask) TargetFileName() string {
	return filepath.Base(t.TargetImagePath)
}

// TaskRecord is the hand-off document the external generator consumes.
type TaskRecord struct {
	RunID     string           `json:"run_id"`
	CreatedAt time.Time        `json:"created_at"`
	Tasks     []GenerationTask `json:"tasks"`
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
