package ports

import (
	"image"
)

// DebugSink receives intermediate results of a detection run.
// Implementations must be safe for concurrent use: difference masks are
// saved from the sequencer as frames retire.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveBackground saves the preprocessed reference frame.
	SaveBackground(img image.Image) error

	// SaveDiffMask saves the annotated difference mask of frame seq.
	SaveDiffMask(seq int, img image.Image) error

	// SaveRunJSON saves the run record as JSON.
	SaveRunJSON(data []byte) error
}
