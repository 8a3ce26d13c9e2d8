package ioutils

import (
	"os"
	"path/filepath"
	"strings"
)

// ImageExtensions lists the extensions (lowercase, with dot) accepted as
// input images.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// WriteFile writes data to a file, creating it if necessary.
//
// The file is created with mode 0644. If the file already exists,
// it is truncated before writing.
//
// Example:
//
//	err := WriteFile("/batch_outputs/batch_tasks.json", data)
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/images/faceswapped")
//	// Creates /images and /images/faceswapped if needed
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// EnsureParentDir creates the directory that will contain path.
func EnsureParentDir(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsImageFile reports whether name has one of ImageExtensions, ignoring case.
//
// Example:
//
//	IsImageFile("photo.JPG")  // true
//	IsImageFile("notes.txt")  // false
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
