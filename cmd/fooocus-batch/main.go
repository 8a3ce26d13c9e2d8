package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"github.com/handiism/fooocus-batch/internal/config"
	"github.com/handiism/fooocus-batch/internal/faceswap"
	"github.com/handiism/fooocus-batch/internal/pipeline"
	"github.com/handiism/fooocus-batch/internal/tui"
)

func main() {
	// Command line flags
	var (
		noInteractiveFlag = flag.Bool("no-interactive", false, "Skip the setup form and use config/flags as given")
		promptsFlag       = flag.String("prompts", "", "Prompt file, one prompt per line (overrides config)")
		faceFlag          = flag.String("face", "", "Face model image (overrides config)")
		outputFlag        = flag.String("output", "", "Batch output folder (overrides config)")
		targetsFlag       = flag.String("targets", "", "Folder of target images for face swap (overrides config)")
		configFlag        = flag.String("config", "", "Path to a saved batch config (JSON or YAML)")
		faceswapURLFlag   = flag.String("faceswap-url", faceswap.DefaultRuntimeURL, "Face analysis service URL")
		concurrencyFlag   = flag.Int("concurrency", 1, "Target images processed in parallel")
		rateFlag          = flag.Float64("rate", 0, "Max face service requests per second (0 = unlimited)")
		verboseFlag       = flag.Bool("verbose", false, "Show verbose output")
	)

	flag.Parse()

	level := slog.LevelWarn
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load config
	cfg := config.DefaultBatchConfig()
	if *configFlag != "" {
		var err error
		cfg, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply flags
	if *promptsFlag != "" {
		cfg.PromptsFile = *promptsFlag
	}
	if *faceFlag != "" {
		cfg.FaceModelImage = *faceFlag
	}
	if *outputFlag != "" {
		cfg.BatchOutputFolder = *outputFlag
	}
	if *targetsFlag != "" {
		cfg.TargetImagesFolder = *targetsFlag
	}

	fmt.Println("🎨 Fooocus Batch")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	if !*noInteractiveFlag {
		submitted, err := tui.Run(cfg)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Println("Setup cancelled.")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running setup: %v\n", err)
			os.Exit(1)
		}
		cfg = submitted
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	runtimeOpts := []faceswap.HTTPRuntimeOption{faceswap.WithRuntimeLogger(logger)}
	if *rateFlag > 0 {
		runtimeOpts = append(runtimeOpts, faceswap.WithRateLimit(*rateFlag))
	}
	engine := faceswap.NewEngine(
		faceswap.NewHTTPRuntime(*faceswapURLFlag, runtimeOpts...),
		faceswap.WithLogger(logger),
	)

	var (
		barMu sync.Mutex
		bar   *progressbar.ProgressBar
	)
	manager := pipeline.NewManager(cfg, engine, pipeline.Options{
		Concurrency: *concurrencyFlag,
		OnProgress: func(event pipeline.ProgressEvent) {
			if event.Level == pipeline.LevelVerbose && !*verboseFlag {
				return
			}

			prefix := ""
			switch event.Level {
			case pipeline.LevelError:
				prefix = "❌ "
			case pipeline.LevelWarning:
				prefix = "⚠️  "
			case pipeline.LevelSuccess:
				prefix = "✅ "
			case pipeline.LevelInfo:
				prefix = "ℹ️  "
			default:
				prefix = "   "
			}

			fmt.Println(prefix + event.Message)
		},
		OnSwapProgress: func(done, total int) {
			if *verboseFlag {
				return
			}
			barMu.Lock()
			defer barMu.Unlock()
			if bar == nil {
				bar = progressbar.Default(int64(total), "Face swap")
			}
			_ = bar.Add(1)
		},
	})

	summary, err := manager.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nBatch cancelled.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✨ Complete! %d generation tasks ready in %s\n", summary.GenerationTasks, summary.TasksPath)
	if summary.FaceSwapTotal > 0 {
		fmt.Printf("   Face swap: %d/%d images\n", summary.FaceSwapSucceeded, summary.FaceSwapTotal)
	}
	for _, failure := range summary.Failures {
		fmt.Printf("   ✗ %s: %v\n", failure.File, failure.Err)
	}
}
