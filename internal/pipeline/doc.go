// Package pipeline runs a batch: it turns a prompt file into generation
// tasks for the external generator and applies face swap to a folder of
// target images.
//
// # Manager
//
// The Manager moves through these states:
//
//	Configuring -> BuildingGenerationTasks -> ProcessingFaceSwap -> Summarizing -> Done
//
// Any state may end in Failed. Failed is reached when:
//   - the configuration is invalid
//   - no generation task could be built (ErrNoTasks)
//   - an output record cannot be written
//   - the context is cancelled
//
// Outputs written before a failure are left in place.
//
// The generator itself is not invoked. The pipeline writes batch_tasks.json
// and batch_config.json into the batch output folder and the generator picks
// them up from there.
//
// # Basic Usage
//
//	engine := faceswap.NewEngine(faceswap.NewHTTPRuntime(url))
//	manager := pipeline.NewManager(cfg, engine, pipeline.Options{
//	    OnProgress: func(event pipeline.ProgressEvent) {
//	        fmt.Println(event.Message)
//	    },
//	})
//
//	summary, err := manager.Run(ctx)
//
// # Partial failures
//
// A target image that fails (no face, unreadable file, runtime error) is
// logged with its filename and counted in Summary.Failures. The rest of the
// batch continues. A missing target folder or face runtime skips the face
// swap phase without failing the run.
package pipeline
