// Package tasks turns prompts and target image folders into task lists.
//
// # Generation tasks
//
// Build creates one GenerationTask per prompt, ids batch_001, batch_002, ...
// in prompt order:
//
//	tasks, err := tasks.Build(prompts, cfg)
//	var warn *model.MissingFaceModelWarning
//	if errors.As(err, &warn) {
//	    // tasks is complete, but its face swap source does not exist
//	}
//
// # Face swap tasks
//
// Resolve lists the image files of a target folder and pairs each with the
// source face image, ids faceswap_001, faceswap_002, ... Filenames are
// sorted lexicographically before ids are assigned, so the same folder
// always yields the same ids.
package tasks
