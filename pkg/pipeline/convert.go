package pipeline

import (
	"fmt"
	"image"
)

const inv255 = float32(1) / 255

// FromRGB24 builds a 3-channel frame from packed 8-bit RGB samples,
// normalised to [0,1].
func FromRGB24(seq, width, height int, buf []byte) (*Frame, error) {
	if len(buf) != width*height*3 {
		return nil, fmt.Errorf("%w: rgb24 buffer has %d bytes, want %d", ErrFrameShape, len(buf), width*height*3)
	}
	f := NewFrame(seq, width, height, 3)
	for i, b := range buf {
		f.Pix[i] = float32(b) * inv255
	}
	return f, nil
}

// FromImage builds a 3-channel frame from any image, normalised to [0,1].
// Alpha is ignored.
func FromImage(seq int, img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(seq, b.Dx(), b.Dy(), 3)

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < f.Height; y++ {
			src := rgba.Pix[(y+b.Min.Y-rgba.Rect.Min.Y)*rgba.Stride+(b.Min.X-rgba.Rect.Min.X)*4:]
			dst := f.Row(y)
			for x := 0; x < f.Width; x++ {
				dst[x*3] = float32(src[x*4]) * inv255
				dst[x*3+1] = float32(src[x*4+1]) * inv255
				dst[x*3+2] = float32(src[x*4+2]) * inv255
			}
		}
		return f
	}

	for y := 0; y < f.Height; y++ {
		dst := f.Row(y)
		for x := 0; x < f.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			dst[x*3] = float32(r>>8) * inv255
			dst[x*3+1] = float32(g>>8) * inv255
			dst[x*3+2] = float32(bl>>8) * inv255
		}
	}
	return f
}
