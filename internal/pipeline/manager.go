package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/fooocus-batch/internal/config"
	"github.com/handiism/fooocus-batch/internal/faceswap"
	ioutils "github.com/handiism/fooocus-batch/internal/io"
	"github.com/handiism/fooocus-batch/internal/model"
	"github.com/handiism/fooocus-batch/internal/prompts"
	"github.com/handiism/fooocus-batch/internal/tasks"
)

// ErrNoTasks is returned when the prompt source yields no generation task.
var ErrNoTasks = errors.New("no generation tasks: prompt file has no prompts")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a pipeline progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Options tunes a Manager. The zero value is usable.
type Options struct {
	// Concurrency is how many face swap tasks are in flight at once.
	// Values below 1 mean 1. Runtime calls are serialized regardless.
	Concurrency int

	// OnProgress receives log-style events.
	OnProgress func(ProgressEvent)

	// OnSwapProgress is called after each face swap task with the number
	// finished so far and the total. Calls never overlap and done grows by
	// one each time.
	OnSwapProgress func(done, total int)
}

// TaskFailure records one face swap task that did not produce an output.
type TaskFailure struct {
	TaskID string
	File   string
	Err    error
}

// Summary describes what a run did.
type Summary struct {
	RunID           string
	GenerationTasks int
	ConfigPath      string
	TasksPath       string

	FaceSwapEnabled    bool
	ImagePromptEnabled bool

	// FaceSwapSkipped is the reason the face swap phase did not run, empty
	// when it ran.
	FaceSwapSkipped   string
	FaceSwapTotal     int
	FaceSwapSucceeded int
	Outputs           []string
	Failures          []TaskFailure

	Warnings []string
}

// Manager coordinates one batch run.
type Manager struct {
	cfg    *config.BatchConfig
	engine *faceswap.Engine
	opts   Options

	state State
	mu    sync.RWMutex

	now func() time.Time
}

// NewManager creates a Manager for cfg. The Manager works on its own copy of
// cfg. engine may be nil, which skips the face swap phase.
func NewManager(cfg *config.BatchConfig, engine *faceswap.Engine, opts Options) *Manager {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Manager{
		cfg:    cfg.Clone(),
		engine: engine,
		opts:   opts,
		state:  StateConfiguring,
		now:    time.Now,
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Config returns a copy of the effective configuration, including any
// degradation applied during the run.
func (m *Manager) Config() *config.BatchConfig {
	return m.cfg.Clone()
}

// Run executes the pipeline. The returned Summary is never nil and holds
// whatever completed before a failure.
func (m *Manager) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	m.setState(StateConfiguring)
	if err := m.cfg.Validate(); err != nil {
		return m.fail(summary, err)
	}
	if err := ctx.Err(); err != nil {
		return m.fail(summary, err)
	}

	m.setState(StateBuildingGenerationTasks)
	if err := m.buildGenerationTasks(ctx, summary); err != nil {
		return m.fail(summary, err)
	}

	m.setState(StateProcessingFaceSwap)
	if err := m.processFaceSwap(ctx, summary); err != nil {
		return m.fail(summary, err)
	}

	m.setState(StateSummarizing)
	m.summarize(summary)

	m.setState(StateDone)
	return summary, nil
}

func (m *Manager) buildGenerationTasks(ctx context.Context, summary *Summary) error {
	lines, err := prompts.Read(m.cfg.PromptsFile)
	var missing *model.MissingInputError
	if errors.As(err, &missing) {
		m.progress(LevelWarning, "Prompt file not found: %s, creating an example", missing.Path)
		if err := prompts.WriteTemplate(missing.Path); err != nil {
			return fmt.Errorf("write prompt template: %w", err)
		}
		m.progress(LevelSuccess, "Created: %s", missing.Path)
		lines, err = prompts.Read(missing.Path)
	}
	if err != nil {
		return fmt.Errorf("read prompts: %w", err)
	}
	m.progress(LevelInfo, "Read %d prompts from %s", len(lines), m.cfg.PromptsFile)

	genTasks, err := tasks.Build(lines, m.cfg)
	var warning *model.MissingFaceModelWarning
	if errors.As(err, &warning) {
		m.progress(LevelWarning, "%v; disabling face swap and image prompt", warning)
		summary.Warnings = append(summary.Warnings, warning.Error())
		m.cfg.EnableFaceSwap = false
		m.cfg.UseImagePrompt = false
		genTasks, err = tasks.Build(lines, m.cfg)
	}
	if err != nil {
		return err
	}
	if len(genTasks) == 0 {
		return ErrNoTasks
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, task := range genTasks {
		m.progress(LevelVerbose, "  %d. %s", i+1, truncate(task.Prompt, 70))
	}

	record := model.TaskRecord{
		RunID:     uuid.NewString(),
		CreatedAt: m.now().UTC(),
		Tasks:     genTasks,
	}
	if err := config.WriteJSON(m.cfg.TasksPath(), record); err != nil {
		return fmt.Errorf("write task record: %w", err)
	}
	if err := m.cfg.Save(m.cfg.ConfigPath()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	summary.RunID = record.RunID
	summary.GenerationTasks = len(genTasks)
	summary.TasksPath = m.cfg.TasksPath()
	summary.ConfigPath = m.cfg.ConfigPath()
	m.progress(LevelSuccess, "%d generation tasks written to %s", len(genTasks), summary.TasksPath)
	m.progress(LevelVerbose, "Config saved to %s", summary.ConfigPath)
	return nil
}

func (m *Manager) processFaceSwap(ctx context.Context, summary *Summary) error {
	if !m.cfg.EnableFaceSwap {
		summary.FaceSwapSkipped = "face swap disabled"
		m.progress(LevelInfo, "Face swap disabled, skipping target images")
		return nil
	}

	swapTasks, err := tasks.Resolve(m.cfg.TargetImagesFolder, m.cfg.FaceModelImage, m.cfg.FaceSwapStrength)
	if err != nil {
		summary.FaceSwapSkipped = err.Error()
		m.progress(LevelWarning, "Skipping face swap: %v", err)
		return nil
	}
	if len(swapTasks) == 0 {
		summary.FaceSwapSkipped = "no images in " + m.cfg.TargetImagesFolder
		m.progress(LevelWarning, "No images in %s", m.cfg.TargetImagesFolder)
		return nil
	}

	if m.engine == nil {
		summary.FaceSwapSkipped = "no face swap engine"
		m.progress(LevelWarning, "Skipping face swap: no engine configured")
		return nil
	}
	if avail := m.engine.IsAvailable(ctx); !avail.Available() {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.FaceSwapSkipped = avail.Err.Error()
		m.progress(LevelWarning, "Skipping face swap: %v", avail.Err)
		return nil
	}

	outDir := m.cfg.FaceSwapOutputFolder()
	if err := ioutils.EnsureDir(outDir); err != nil {
		summary.FaceSwapSkipped = fmt.Sprintf("create %s: %v", outDir, err)
		m.progress(LevelWarning, "Skipping face swap: cannot create %s: %v", outDir, err)
		return nil
	}

	total := len(swapTasks)
	summary.FaceSwapTotal = total
	m.progress(LevelInfo, "Processing %d target images", total)
	for i, task := range swapTasks {
		m.progress(LevelVerbose, "  %d. %s", i+1, task.TargetFileName())
	}

	outputs := make([]string, total)
	failures := make([]error, total)

	// Held while counting and reporting so OnSwapProgress sees done increase
	// by one per call.
	var (
		doneMu sync.Mutex
		done   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for i, task := range swapTasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := m.engine.Process(gctx, task, outDir)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				m.progress(LevelError, "Face swap failed for %s: %v", task.TargetFileName(), err)
			} else {
				outputs[i] = out
				m.progress(LevelVerbose, "Saved: %s", out)
			}

			doneMu.Lock()
			done++
			m.swapProgress(done, total)
			doneMu.Unlock()
			return nil
		})
	}
	waitErr := g.Wait()

	for i, task := range swapTasks {
		switch {
		case failures[i] != nil:
			summary.Failures = append(summary.Failures, TaskFailure{TaskID: task.TaskID, File: task.TargetFileName(), Err: failures[i]})
		case outputs[i] != "":
			summary.FaceSwapSucceeded++
			summary.Outputs = append(summary.Outputs, outputs[i])
		}
	}

	return waitErr
}

func (m *Manager) summarize(summary *Summary) {
	summary.FaceSwapEnabled = m.cfg.EnableFaceSwap
	summary.ImagePromptEnabled = m.cfg.UseImagePrompt

	m.progress(LevelInfo, "Prompts to generate: %d", summary.GenerationTasks)
	m.progress(LevelInfo, "Output: %s", m.cfg.BatchOutputFolder)
	m.progress(LevelInfo, "Face swap: %s", enabledString(summary.FaceSwapEnabled))
	m.progress(LevelInfo, "Image prompt: %s", enabledString(summary.ImagePromptEnabled))

	switch {
	case summary.FaceSwapSkipped != "":
		m.progress(LevelInfo, "Target images: skipped (%s)", summary.FaceSwapSkipped)
	case len(summary.Failures) == 0:
		m.progress(LevelSuccess, "Target images: %d/%d processed", summary.FaceSwapSucceeded, summary.FaceSwapTotal)
	default:
		m.progress(LevelWarning, "Target images: %d/%d processed, %d failed", summary.FaceSwapSucceeded, summary.FaceSwapTotal, len(summary.Failures))
	}
}

func (m *Manager) fail(summary *Summary, err error) (*Summary, error) {
	m.setState(StateFailed)
	return summary, err
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()

	if prev != s {
		m.progress(LevelVerbose, "State: %s -> %s", prev, s)
	}
}

func (m *Manager) progress(level ProgressLevel, format string, args ...any) {
	if m.opts.OnProgress != nil {
		m.opts.OnProgress(ProgressEvent{Message: fmt.Sprintf(format, args...), Level: level})
	}
}

func (m *Manager) swapProgress(done, total int) {
	if m.opts.OnSwapProgress != nil {
		m.opts.OnSwapProgress(done, total)
	}
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
