// Package model defines the value types shared by the batch pipeline.
//
// # Prompt lines
//
// A PromptLine is one usable line of a prompt file: trimmed, non-empty and
// not a "#" comment. Order follows the source file.
//
// # Tasks
//
// GenerationTask is the unit handed to the external image generator and
// FaceSwapTask the unit consumed by the face swap engine:
//
//	task := model.NewGenerationTask(1, "a cat")
//	fmt.Println(task.TaskID) // batch_001
//
//	swap := model.NewFaceSwapTask(1, "targets/a.jpg", "face.jpg", 1.0)
//	fmt.Println(swap.TaskID, swap.OutputPrefix) // faceswap_001 faceswapped_a
//
// Tasks are plain values. They carry copies of the settings they need and
// never point back at the configuration that produced them.
//
// # Errors
//
// The error types in this package classify every failure the pipeline
// distinguishes. Match them with errors.As:
//
//	var missing *model.MissingInputError
//	if errors.As(err, &missing) {
//	    // write a template and retry
//	}
package model
