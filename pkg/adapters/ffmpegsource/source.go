// Package ffmpegsource decodes video files into frames by piping raw RGB
// output from an ffmpeg process.
package ffmpegsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/ports"
)

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegsource: ffmpeg not found in PATH")
	// ErrUnknownSize is returned when the frame size is neither configured
	// nor readable from the container.
	ErrUnknownSize = errors.New("ffmpegsource: frame size unknown")
	// ErrTruncatedFrame is returned when the stream ends inside a frame.
	ErrTruncatedFrame = errors.New("ffmpegsource: truncated frame")
)

// Options configures a Source.
type Options struct {
	FFmpegPath string // Explicit ffmpeg binary; searched for when empty
	Width      int    // Output width; probed when 0
	Height     int    // Output height; probed when 0
	Prober     ports.VideoProber
}

// Source reads frames from an ffmpeg child process.
type Source struct {
	info   pipeline.SourceInfo
	width  int
	height int
	r      io.Reader
	buf    []byte
	next   int

	cmd    *exec.Cmd
	stderr *strings.Builder
	cancel context.CancelFunc

	closeOnce sync.Once
}

// Open starts ffmpeg on path. The process lives until the stream is
// exhausted, Close is called or ctx is cancelled.
func Open(ctx context.Context, path string, opts Options) (*Source, error) {
	ffmpegPath, err := findFFmpeg(opts.FFmpegPath)
	if err != nil {
		return nil, err
	}

	info := pipeline.SourceInfo{Name: filepath.Base(path), Width: opts.Width, Height: opts.Height}
	if opts.Prober != nil {
		if v, err := opts.Prober.Probe(path); err == nil {
			if info.Width == 0 || info.Height == 0 {
				info.Width, info.Height = v.Width, v.Height
			}
			info.FrameCount = v.Frames
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSize, path)
	}

	probed := opts.Width <= 0 || opts.Height <= 0
	cctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cctx, ffmpegPath, decodeArgs(path, info.Width, info.Height, probed)...)
	stderr := &strings.Builder{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	s := newSource(bufio.NewReaderSize(stdout, 1<<20), info)
	s.cmd = cmd
	s.stderr = stderr
	s.cancel = cancel
	return s, nil
}

// decodeArgs builds the ffmpeg command line. The output is always scaled to
// width x height so every frame matches the read buffer. A probed size is the
// coded size, so rotation metadata must not be applied to the stream.
func decodeArgs(path string, width, height int, probed bool) []string {
	args := []string{"-v", "error", "-nostdin"}
	if probed {
		args = append(args, "-noautorotate")
	}
	return append(args,
		"-i", path,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-f", "rawvideo", "-pix_fmt", "rgb24", "-")
}

func newSource(r io.Reader, info pipeline.SourceInfo) *Source {
	return &Source{
		info:   info,
		width:  info.Width,
		height: info.Height,
		r:      r,
		buf:    make([]byte, info.Width*info.Height*3),
	}
}

// Info describes the opened stream.
func (s *Source) Info() pipeline.SourceInfo {
	return s.info
}

// Next decodes the next frame. It returns io.EOF after the last one.
func (s *Source) Next(ctx context.Context) (*pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, err := io.ReadFull(s.r, s.buf)
	switch {
	case errors.Is(err, io.EOF):
		if werr := s.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: frame %d", ErrTruncatedFrame, s.next)
	case err != nil:
		return nil, fmt.Errorf("read frame %d: %w", s.next, err)
	}

	f, err := pipeline.FromRGB24(s.next, s.width, s.height, s.buf)
	if err != nil {
		return nil, err
	}
	s.next++
	return f, nil
}

// Close stops the ffmpeg process.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.cmd != nil && s.cmd.ProcessState == nil {
			// The process was killed; its exit status is not interesting.
			_ = s.cmd.Wait()
		}
	})
	return nil
}

func (s *Source) wait() error {
	if s.cmd == nil || s.cmd.ProcessState != nil {
		return nil
	}
	if err := s.cmd.Wait(); err != nil {
		msg := strings.TrimSpace(s.stderr.String())
		if msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// findFFmpeg searches for ffmpeg in PATH and common locations.
// A non-empty custom path is used as is.
func findFFmpeg(custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	} else {
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

// Available reports whether an ffmpeg binary can be found.
func Available() bool {
	_, err := findFFmpeg("")
	return err == nil
}

var _ pipeline.FrameSource = (*Source)(nil)
