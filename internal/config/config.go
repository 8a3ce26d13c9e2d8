package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/handiism/fooocus-batch/internal/model"
)

// ConfigFileName is the name of the saved configuration inside the batch
// output folder.
const ConfigFileName = "batch_config.json"

// TasksFileName is the name of the task record inside the batch output folder.
const TasksFileName = "batch_tasks.json"

// BatchConfig holds one run's configuration. The pipeline owns it for the
// run's duration; field order is the key order of the saved JSON.
type BatchConfig struct {
	// Paths
	PromptsFile        string `json:"prompts_file" yaml:"prompts_file"`
	FaceModelImage     string `json:"face_model_image" yaml:"face_model_image"`
	TargetImagesFolder string `json:"target_images_folder" yaml:"target_images_folder"`
	BatchOutputFolder  string `json:"batch_output_folder" yaml:"batch_output_folder"`

	// Face swap
	EnableFaceSwap   bool    `json:"enable_face_swap" yaml:"enable_face_swap"`
	FaceSwapStrength float64 `json:"face_swap_strength" yaml:"face_swap_strength"`

	// Image prompt (reference image conditioning)
	UseImagePrompt      bool    `json:"use_image_prompt" yaml:"use_image_prompt"`
	ImagePromptStrength float64 `json:"image_prompt_strength" yaml:"image_prompt_strength"`

	// Generation
	AspectRatio string  `json:"aspect_ratio" yaml:"aspect_ratio"`
	Steps       int     `json:"steps" yaml:"steps"`
	CFGScale    float64 `json:"cfg_scale" yaml:"cfg_scale"`
	Sampler     string  `json:"sampler" yaml:"sampler"`
	Scheduler   string  `json:"scheduler" yaml:"scheduler"`
	Seed        int64   `json:"seed" yaml:"seed"` // -1 for random
}

// DefaultBatchConfig returns a configuration with default values.
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		PromptsFile:        "prompts.txt",
		FaceModelImage:     "face_model.jpg",
		TargetImagesFolder: "target_images",
		BatchOutputFolder:  "batch_outputs",

		EnableFaceSwap:   true,
		FaceSwapStrength: 1.0,

		UseImagePrompt:      true,
		ImagePromptStrength: 0.5,

		AspectRatio: "1152*896",
		Steps:       20,
		CFGScale:    4.0,
		Sampler:     "dpmpp_2m_sde_gpu",
		Scheduler:   "karras",
		Seed:        -1,
	}
}

// Load reads a configuration file. Keys missing from the file keep their
// default values.
func Load(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultBatchConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultBatchConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration as JSON.
func (c *BatchConfig) Save(path string) error {
	return WriteJSON(path, c)
}

// ConfigPath returns where Save should write batch_config.json.
func (c *BatchConfig) ConfigPath() string {
	return filepath.Join(c.BatchOutputFolder, ConfigFileName)
}

// TasksPath returns where the task record is written.
func (c *BatchConfig) TasksPath() string {
	return filepath.Join(c.BatchOutputFolder, TasksFileName)
}

// FaceSwapOutputFolder returns the folder processed targets are written to.
func (c *BatchConfig) FaceSwapOutputFolder() string {
	return filepath.Join(c.TargetImagesFolder, "faceswapped")
}

// Clone returns a copy the caller may change freely.
func (c *BatchConfig) Clone() *BatchConfig {
	cp := *c
	return &cp
}

var aspectRatioPattern = regexp.MustCompile(`^\d+\s*[*×]\s*\d+$`)

// Validate checks strengths and numeric parameters. The first problem found
// is returned as a *model.ConfigValidationError.
func (c *BatchConfig) Validate() error {
	required := []struct {
		field, value string
	}{
		{"prompts_file", c.PromptsFile},
		{"face_model_image", c.FaceModelImage},
		{"target_images_folder", c.TargetImagesFolder},
		{"batch_output_folder", c.BatchOutputFolder},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &model.ConfigValidationError{Field: r.field, Value: r.value, Reason: "must not be empty"}
		}
	}

	if err := validateStrength("face_swap_strength", c.FaceSwapStrength); err != nil {
		return err
	}
	if err := validateStrength("image_prompt_strength", c.ImagePromptStrength); err != nil {
		return err
	}

	if c.Steps < 1 {
		return &model.ConfigValidationError{Field: "steps", Value: c.Steps, Reason: "must be at least 1"}
	}
	if c.CFGScale <= 0 {
		return &model.ConfigValidationError{Field: "cfg_scale", Value: c.CFGScale, Reason: "must be positive"}
	}
	if c.Seed < -1 {
		return &model.ConfigValidationError{Field: "seed", Value: c.Seed, Reason: "must be -1 (random) or non-negative"}
	}
	if !aspectRatioPattern.MatchString(c.AspectRatio) {
		return &model.ConfigValidationError{Field: "aspect_ratio", Value: c.AspectRatio, Reason: "expected WIDTH*HEIGHT"}
	}
	if strings.TrimSpace(c.Sampler) == "" {
		return &model.ConfigValidationError{Field: "sampler", Value: c.Sampler, Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.Scheduler) == "" {
		return &model.ConfigValidationError{Field: "scheduler", Value: c.Scheduler, Reason: "must not be empty"}
	}

	return nil
}

func validateStrength(field string, v float64) error {
	// NaN fails both comparisons, so test for the valid range instead.
	if !(v >= 0 && v <= 1) {
		return &model.ConfigValidationError{Field: field, Value: v, Reason: "must be within [0, 1]"}
	}
	return nil
}

// WriteJSON writes v to path with 4-space indentation, creating the parent
// directory. HTML characters and non-ASCII text are written literally.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}
