package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RecordTimeLayout is the date format at the start of every results line.
const RecordTimeLayout = time.ANSIC

// FormatRecord renders the results line for s:
//
//	<date> - <video>,<program>,<k>,<workers>,<debug 0|1>,<usec>,<movement frames>,<run id>
func FormatRecord(s *Summary) string {
	debug := 0
	if s.Settings.Debug {
		debug = 1
	}
	return fmt.Sprintf("%s - %s,%s,%d,%d,%d,%d,%d,%s\n",
		s.GeneratedAt.Format(RecordTimeLayout),
		s.Source.Name,
		s.Settings.Program,
		s.Settings.K,
		s.Settings.TotalWorkers,
		debug,
		s.Elapsed.Microseconds(),
		s.Detection.MovementFrames,
		s.RunID,
	)
}

// ResultsPath returns the default results file for a video:
// dir/<video name without extension>.txt.
func ResultsPath(dir, video string) string {
	base := filepath.Base(video)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		name = "results"
	}
	return filepath.Join(dir, name+".txt")
}
