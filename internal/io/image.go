package ioutils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// JPEGQuality is used whenever an image is written as JPEG.
const JPEGQuality = 95

// ImageService loads, converts and writes images for the face swap engine.
//
// Decoding supports JPEG, PNG and WebP. Encoding supports JPEG and PNG only;
// OutputExtension appends ".png" to any other extension.
//
// Example usage:
//
//	svc := NewImageService()
//	img, _, err := svc.Load("target_images/a.jpg")
//	rgba := svc.ToRGBA(img)
//	err = svc.Save("target_images/faceswapped/faceswapped_a.jpg", rgba)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Load reads and decodes the image at path. The returned format is the
// registered decoder name ("jpeg", "png" or "webp").
func (s *ImageService) Load(path string) (image.Image, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return s.Decode(data)
}

// Decode decodes image data in any registered format.
func (s *ImageService) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// EncodePNG encodes img as PNG.
func (s *ImageService) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode encodes img according to ext (".jpg"/".jpeg" as JPEG, anything
// else as PNG).
func (s *ImageService) Encode(img image.Image, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return s.EncodePNG(img)
	}
}

// Save encodes img by the extension of path and writes it, creating the
// parent directory.
func (s *ImageService) Save(path string, img image.Image) error {
	data, err := s.Encode(img, filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	return WriteFile(path, data)
}

// OutputExtension returns the extension an image read from a file with ext
// is written back with. Formats without an encoder keep their extension and
// gain ".png", so a.webp and a.png never map to the same output.
//
//	OutputExtension(".JPG")  // ".JPG"
//	OutputExtension(".webp") // ".webp.png"
func (s *ImageService) OutputExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png":
		return ext
	default:
		return ext + ".png"
	}
}

// Resize scales img to exactly width x height.
//
// The Catmull-Rom algorithm is used for high-quality scaling. The aspect
// ratio is not preserved; callers pass the dimensions they need.
func (s *ImageService) Resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ToRGBA returns a new RGBA copy of img with its origin moved to (0, 0).
// The input is never modified.
func (s *ImageService) ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
