package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRGB24(t *testing.T) {
	f, err := FromRGB24(7, 2, 1, []byte{0, 255, 51, 102, 204, 255})
	require.NoError(t, err)

	assert.Equal(t, 7, f.Seq)
	assert.Equal(t, 3, f.Channels)
	assert.InDeltaSlice(t, []float32{0, 1, 0.2, 0.4, 0.8, 1}, f.Pix, 1e-6)
}

func TestFromRGB24_ShortBuffer(t *testing.T) {
	_, err := FromRGB24(0, 2, 2, make([]byte, 5))
	assert.ErrorIs(t, err, ErrFrameShape)
}

func TestFromImage_MatchesGenericPath(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 3, 2))
	nrgba := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			c := color.RGBA{R: uint8(x * 80), G: uint8(y * 120), B: 200, A: 255}
			rgba.Set(x, y, c)
			nrgba.Set(x, y, c)
		}
	}

	fast := FromImage(1, rgba)
	slow := FromImage(1, nrgba)
	assert.Equal(t, 3, fast.Width)
	assert.Equal(t, 2, fast.Height)
	assert.InDeltaSlice(t, fast.Pix, slow.Pix, 1e-6)
}

func TestFromImage_SubImage(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rgba.Set(2, 2, color.RGBA{R: 255, A: 255})

	f := FromImage(0, rgba.SubImage(image.Rect(2, 2, 4, 4)))
	assert.Equal(t, 2, f.Width)
	assert.InDelta(t, 1.0, f.Pix[0], 1e-6)
	assert.InDelta(t, 0.0, f.Pix[3], 1e-6)
}
