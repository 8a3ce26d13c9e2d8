package faceswap

import (
	"image"
	"math"
)

// Blend mixes swapped over original by strength and returns a new image.
//
// Strength 1 yields swapped, 0 yields original; values outside [0, 1] are
// clamped. Both images must have the same bounds. The interpolation runs on
// premultiplied RGBA, so alpha stays consistent.
func Blend(original, swapped *image.RGBA, strength float64) *image.RGBA {
	out := image.NewRGBA(original.Rect)

	switch {
	case !(strength > 0):
		copy(out.Pix, original.Pix)
		return out
	case strength >= 1:
		copy(out.Pix, swapped.Pix)
		return out
	}

	inv := 1 - strength
	for i := range out.Pix {
		v := float64(original.Pix[i])*inv + float64(swapped.Pix[i])*strength
		out.Pix[i] = uint8(math.Round(v))
	}
	return out
}
