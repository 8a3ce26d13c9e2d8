package tasks

import (
	"github.com/handiism/fooocus-batch/internal/config"
	ioutils "github.com/handiism/fooocus-batch/internal/io"
	"github.com/handiism/fooocus-batch/internal/model"
)

// Build converts prompts into generation tasks sharing the generation
// parameters of cfg.
//
// If face swap is enabled but cfg.FaceModelImage does not exist, the full
// task list is still returned together with a *model.MissingFaceModelWarning
// so the caller can disable swapping before dispatch. An empty prompt list
// yields an empty task list and no error.
func Build(prompts []model.PromptLine, cfg *config.BatchConfig) ([]model.GenerationTask, error) {
	if len(prompts) == 0 {
		return []model.GenerationTask{}, nil
	}

	var warning error
	if cfg.EnableFaceSwap && !ioutils.FileExists(cfg.FaceModelImage) {
		warning = &model.MissingFaceModelWarning{Path: cfg.FaceModelImage}
	}

	faceSwap := model.FaceSwapSettings{Enabled: cfg.EnableFaceSwap}
	if cfg.EnableFaceSwap {
		faceSwap.SourceImage = cfg.FaceModelImage
	}
	imagePrompt := model.ImagePromptSettings{
		Enabled:  cfg.UseImagePrompt,
		Strength: cfg.ImagePromptStrength,
	}
	if cfg.UseImagePrompt {
		imagePrompt.SourceImage = cfg.FaceModelImage
	}

	tasks := make([]model.GenerationTask, 0, len(prompts))
	for i, prompt := range prompts {
		task := model.NewGenerationTask(i+1, prompt)
		task.AspectRatio = cfg.AspectRatio
		task.Steps = cfg.Steps
		task.CFGScale = cfg.CFGScale
		task.Sampler = cfg.Sampler
		task.Scheduler = cfg.Scheduler
		task.Seed = cfg.Seed
		task.FaceSwap = faceSwap
		task.ImagePrompt = imagePrompt
		tasks = append(tasks, task)
	}

	return tasks, warning
}
