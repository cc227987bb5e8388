package ports

// VideoInfo describes the video track of a container.
type VideoInfo struct {
	Codec  string  // "h264", "hevc", "av1" or "unknown"
	Width  int     // Coded width in pixels
	Height int     // Coded height in pixels
	Frames int     // Number of samples in the track; 0 when unknown
	FPS    float64 // Average frame rate; 0 when unknown
}

// VideoProber reads video track metadata without decoding frames.
type VideoProber interface {
	// Probe returns the metadata of the first video track in path.
	Probe(path string) (VideoInfo, error)
}
