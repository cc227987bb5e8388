// Package imagesource reads frames from a directory of still images, in
// file name order.
package imagesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/ports"
)

// ErrNoFrames is returned when the directory holds no supported images.
var ErrNoFrames = errors.New("imagesource: no images found")

var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Options configures a Source.
type Options struct {
	// Width and Height scale every image when both are set. Otherwise
	// every image must match the size of the first one.
	Width  int
	Height int
}

// Source decodes one image per Next call.
type Source struct {
	fs    ports.FileSystem
	dir   string
	files []string
	opts  Options
	info  pipeline.SourceInfo
	next  int
}

// Open lists the supported images in dir and decodes the first one to learn
// the frame size.
func Open(fs ports.FileSystem, dir string, opts Options) (*Source, error) {
	names, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, name := range names {
		if extensions[strings.ToLower(filepath.Ext(name))] {
			files = append(files, name)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}

	s := &Source{
		fs:    fs,
		dir:   dir,
		files: files,
		opts:  opts,
		info:  pipeline.SourceInfo{Name: filepath.Base(dir), FrameCount: len(files)},
	}
	if opts.Width > 0 && opts.Height > 0 {
		s.info.Width, s.info.Height = opts.Width, opts.Height
	} else {
		img, err := s.decode(files[0])
		if err != nil {
			return nil, err
		}
		s.info.Width, s.info.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	return s, nil
}

// Info describes the image sequence.
func (s *Source) Info() pipeline.SourceInfo {
	return s.info
}

// Next decodes the next image. It returns io.EOF after the last one.
func (s *Source) Next(ctx context.Context) (*pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.files) {
		return nil, io.EOF
	}

	name := s.files[s.next]
	img, err := s.decode(name)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() != s.info.Width || b.Dy() != s.info.Height {
		if s.opts.Width == 0 || s.opts.Height == 0 {
			return nil, fmt.Errorf("%w: %s is %dx%d, expected %dx%d",
				pipeline.ErrFrameShape, name, b.Dx(), b.Dy(), s.info.Width, s.info.Height)
		}
		img = resize(img, s.info.Width, s.info.Height)
	}

	f := pipeline.FromImage(s.next, img)
	s.next++
	return f, nil
}

// Close releases nothing; images are read one at a time.
func (s *Source) Close() error {
	return nil
}

func (s *Source) decode(name string) (image.Image, error) {
	data, err := s.fs.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}

func resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

var _ pipeline.FrameSource = (*Source)(nil)
