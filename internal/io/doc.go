// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - File writing and directory creation
//   - Existence checks for input files and folders
//   - Image decoding (JPEG, PNG, WebP) and encoding by file extension
//   - Image rescaling
//
// # File Operations
//
//	// Write data to file
//	err := ioutils.WriteFile("/path/to/file.txt", []byte("content"))
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// # Image Processing
//
// The ImageService loads and saves the images handled by the face swap
// engine:
//
//	svc := ioutils.NewImageService()
//
//	img, format, err := svc.Load("targets/a.webp")
//
//	// Scale to exactly 512x512
//	scaled := svc.Resize(img, 512, 512)
//
//	// Encode according to the extension (.jpg/.jpeg or .png)
//	err = svc.Save("out/a.png", scaled)
package ioutils
