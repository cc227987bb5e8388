// Package main provides localization for the motionpipe CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Detect movement in videos with a parallel frame pipeline.": "並列フレームパイプラインで動画内の動きを検出します。",

		// Detect command
		"an input video or --synthetic is required": "入力動画または --synthetic の指定が必要です",
		"Detecting movement in %s (k=%d, %s)":       "%s の動きを検出中 (k=%d, %s)",
		"Results appended to %s":                    "結果を %s に追記しました",

		// Probe command
		"Codec: %s":            "コーデック: %s",
		"Resolution: %d x %d":  "解像度: %d x %d",
		"Frames: %d":           "フレーム数: %d",
		"Frame rate: %.2f fps": "フレームレート: %.2f fps",

		// Version command
		"motionpipe (Go) version %s": "motionpipe (Go版) バージョン %s",
	})
}
