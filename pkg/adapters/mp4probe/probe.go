// Package mp4probe reads video track metadata from MP4 containers.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/motionpipe/pkg/ports"
)

// Codec names reported in ports.VideoInfo.
const (
	CodecH264    = "h264"
	CodecHEVC    = "hevc"
	CodecAV1     = "av1"
	CodecUnknown = "unknown"
)

// ErrNoVideoTrack is returned when the container has no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Prober implements ports.VideoProber with mp4ff.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe returns the metadata of the first video track in path.
func (p *Prober) Probe(path string) (ports.VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeReader returns the metadata of the first video track read from r.
// Media data is skipped rather than read.
func ProbeReader(r io.ReadSeeker) (ports.VideoInfo, error) {
	mp4File, err := mp4.DecodeFile(r, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		info, trackID, err := probeTraks(mp4File.Init.Moov.Traks)
		if err != nil {
			return info, err
		}
		info.Frames = countFragmentSamples(mp4File, trackID)
		return info, nil
	}

	if mp4File.Moov == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	info, _, err := probeTraks(mp4File.Moov.Traks)
	return info, err
}

// probeTraks describes the first video track and returns its track ID.
func probeTraks(traks []*mp4.TrakBox) (ports.VideoInfo, uint32, error) {
	for _, trak := range traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		stbl := trak.Mdia.Minf.Stbl

		info := ports.VideoInfo{Codec: CodecUnknown}
		for _, child := range stbl.Stsd.Children {
			entry, ok := child.(*mp4.VisualSampleEntryBox)
			if !ok {
				continue
			}
			info.Codec = codecName(child.Type())
			info.Width = int(entry.Width)
			info.Height = int(entry.Height)
			break
		}

		if stbl.Stsz != nil {
			info.Frames = int(stbl.Stsz.SampleNumber)
		}
		if mdhd := trak.Mdia.Mdhd; mdhd != nil && mdhd.Timescale > 0 && mdhd.Duration > 0 && info.Frames > 0 {
			seconds := float64(mdhd.Duration) / float64(mdhd.Timescale)
			info.FPS = float64(info.Frames) / seconds
		}

		var trackID uint32
		if trak.Tkhd != nil {
			trackID = trak.Tkhd.TrackID
		}
		return info, trackID, nil
	}
	return ports.VideoInfo{}, 0, ErrNoVideoTrack
}

func countFragmentSamples(mp4File *mp4.File, trackID uint32) int {
	n := 0
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				for _, trun := range traf.Truns {
					n += int(trun.SampleCount())
				}
			}
		}
	}
	return n
}

func codecName(sampleEntry string) string {
	switch sampleEntry {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	default:
		return CodecUnknown
	}
}

// Ensure Prober implements ports.VideoProber
var _ ports.VideoProber = (*Prober)(nil)
