package imagesource

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/user/motionpipe/pkg/mocks"
	"github.com/user/motionpipe/pkg/pipeline"
)

func solid(t *testing.T, w, h int, c color.Color, encode func(io.Writer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func TestSource_ReadsInNameOrder(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile("frames/002.png", solid(t, 4, 3, color.White, png.Encode)))
	require.NoError(t, fs.WriteFile("frames/001.bmp", solid(t, 4, 3, color.Black, bmp.Encode)))
	require.NoError(t, fs.WriteFile("frames/notes.txt", []byte("ignored")))

	s, err := Open(fs, "frames", Options{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.SourceInfo{Name: "frames", Width: 4, Height: 3, FrameCount: 2}, s.Info())

	ctx := context.Background()
	f0, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, f0.Seq)
	assert.Equal(t, float32(0), f0.Pix[0])

	f1, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f1.Seq)
	assert.InDelta(t, 1.0, f1.Pix[0], 1e-6)

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSource_Resize(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile("in/a.png", solid(t, 8, 8, color.Gray{Y: 128}, png.Encode)))

	s, err := Open(fs, "in", Options{Width: 4, Height: 2})
	require.NoError(t, err)

	f, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.InDelta(t, 128.0/255, f.Pix[0], 0.01)
}

func TestSource_SizeMismatch(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile("in/a.png", solid(t, 4, 4, color.White, png.Encode)))
	require.NoError(t, fs.WriteFile("in/b.png", solid(t, 5, 4, color.White, png.Encode)))

	s, err := Open(fs, "in", Options{})
	require.NoError(t, err)

	_, err = s.Next(context.Background())
	require.NoError(t, err)
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrFrameShape)
}

func TestOpen_NoImages(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile("empty/readme.md", []byte("#")))

	_, err := Open(fs, "empty", Options{})
	assert.ErrorIs(t, err, ErrNoFrames)
}
