package tasks

import (
	"os"
	"path/filepath"
	"sort"

	ioutils "github.com/handiism/fooocus-batch/internal/io"
	"github.com/handiism/fooocus-batch/internal/model"
)

// Resolve pairs every image file in targetsFolder with sourceImage.
//
// Files are filtered by extension (.jpg, .jpeg, .png, .webp, any case) and
// sorted by name before ids are assigned. Subdirectories are ignored. When
// the folder or the source image is missing an empty list and a
// *model.MissingCollateralError are returned.
func Resolve(targetsFolder, sourceImage string, strength float64) ([]model.FaceSwapTask, error) {
	if !ioutils.DirExists(targetsFolder) {
		return []model.FaceSwapTask{}, &model.MissingCollateralError{What: "target folder", Path: targetsFolder}
	}
	if !ioutils.FileExists(sourceImage) {
		return []model.FaceSwapTask{}, &model.MissingCollateralError{What: "source image", Path: sourceImage}
	}

	names, err := ListImages(targetsFolder)
	if err != nil {
		return []model.FaceSwapTask{}, err
	}

	tasks := make([]model.FaceSwapTask, 0, len(names))
	for i, name := range names {
		tasks = append(tasks, model.NewFaceSwapTask(i+1, filepath.Join(targetsFolder, name), sourceImage, strength))
	}

	return tasks, nil
}

// ListImages returns the sorted names of the image files directly inside dir.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !ioutils.IsImageFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}
