package motionpipe

import (
	"context"
	"fmt"
	"os"

	"github.com/user/motionpipe/pkg/adapters/ffmpegsource"
	"github.com/user/motionpipe/pkg/adapters/gocvsource"
	"github.com/user/motionpipe/pkg/adapters/imagesource"
	"github.com/user/motionpipe/pkg/adapters/synthsource"
	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/ports"
)

// Decoder names accepted by OpenSource.
const (
	DecoderAuto   = "auto"
	DecoderFFmpeg = "ffmpeg"
	DecoderGoCV   = "gocv"
	DecoderImages = "images"
)

// Source is a FrameSource that can describe itself once opened.
type Source interface {
	pipeline.FrameSource
	Info() pipeline.SourceInfo
}

// SourceOptions selects and configures a frame source.
type SourceOptions struct {
	Decoder    string // auto, ffmpeg, gocv or images
	FFmpegPath string
	Width      int // Resize target; 0 keeps the input size
	Height     int

	// Synthetic > 0 ignores the input and generates that many frames after
	// the background.
	Synthetic int
}

// OpenSource opens input with the decoder named in opts. In auto mode a
// directory is read as an image sequence and a file is decoded with OpenCV
// when the build supports it, otherwise with ffmpeg.
func OpenSource(ctx context.Context, input string, opts SourceOptions, fs ports.FileSystem, prober ports.VideoProber) (Source, error) {
	if opts.Synthetic > 0 {
		return synthsource.New(synthsource.Options{
			Width:  opts.Width,
			Height: opts.Height,
			Frames: opts.Synthetic,
		}), nil
	}

	decoder := opts.Decoder
	if decoder == "" || decoder == DecoderAuto {
		decoder = autoDecoder(input)
	}

	switch decoder {
	case DecoderImages:
		return imagesource.Open(fs, input, imagesource.Options{Width: opts.Width, Height: opts.Height})
	case DecoderGoCV:
		return gocvsource.Open(ctx, input)
	case DecoderFFmpeg:
		return ffmpegsource.Open(ctx, input, ffmpegsource.Options{
			FFmpegPath: opts.FFmpegPath,
			Width:      opts.Width,
			Height:     opts.Height,
			Prober:     prober,
		})
	default:
		return nil, fmt.Errorf("unknown decoder %q", opts.Decoder)
	}
}

func autoDecoder(input string) string {
	if st, err := os.Stat(input); err == nil && st.IsDir() {
		return DecoderImages
	}
	if gocvsource.Available() {
		return DecoderGoCV
	}
	return DecoderFFmpeg
}
