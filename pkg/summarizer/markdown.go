package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"Motion Detection Summary": "動き検出サマリー",
		"Source":                   "入力",
		"Detection":                "検出結果",
		"Workers":                  "ワーカー",
		"Item":                     "項目",
		"Value":                    "値",
		"Video":                    "動画",
		"Resolution":               "解像度",
		"Frames":                   "フレーム数",
		"Frames with movement":     "動きのあるフレーム",
		"Movement ratio":           "動きの割合",
		"Movement threshold (k)":   "動き判定しきい値 (k)",
		"Average intensity":        "平均輝度",
		"Pixel threshold":          "画素しきい値",
		"Program":                  "プログラム",
		"Preset":                   "プリセット",
		"Preprocess workers":       "前処理ワーカー",
		"Classify workers":         "判定ワーカー",
		"Total workers":            "総ワーカー数",
		"Elapsed":                  "処理時間",
		"Run ID":                   "実行ID",
		"Generated at %s":          "%s に生成",
	})
}

// MarkdownFormatter renders a Summary as a Markdown document with localized
// headings.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", l10n.T("Motion Detection Summary"))
	fmt.Fprintf(&b, "%s\n\n", l10n.F("Generated at %s", s.GeneratedAt.Format(time.RFC3339)))

	section(&b, l10n.T("Source"), [][2]string{
		{l10n.T("Video"), s.Source.Name},
		{l10n.T("Resolution"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height)},
	})

	d := s.Detection
	section(&b, l10n.T("Detection"), [][2]string{
		{l10n.T("Frames"), fmt.Sprintf("%d", d.Frames)},
		{l10n.T("Frames with movement"), fmt.Sprintf("%d", d.MovementFrames)},
		{l10n.T("Movement ratio"), fmt.Sprintf("%.1f%%", d.MovementRatio()*100)},
		{l10n.T("Movement threshold (k)"), fmt.Sprintf("%d%%", s.Settings.K)},
		{l10n.T("Average intensity"), fmt.Sprintf("%.2f", d.AvgIntensity)},
		{l10n.T("Pixel threshold"), fmt.Sprintf("%.4f", d.PixelThreshold)},
	})

	st := s.Settings
	section(&b, l10n.T("Workers"), [][2]string{
		{l10n.T("Program"), st.Program},
		{l10n.T("Preset"), orDash(st.Preset)},
		{l10n.T("Preprocess workers"), fmt.Sprintf("%d x %d", st.PreprocessWorkers, st.PreprocessRowSplit)},
		{l10n.T("Classify workers"), fmt.Sprintf("%d x %d", st.ClassifyWorkers, st.ClassifyRowSplit)},
		{l10n.T("Total workers"), fmt.Sprintf("%d", st.TotalWorkers)},
		{l10n.T("Elapsed"), formatElapsed(s.Elapsed)},
		{l10n.T("Run ID"), s.RunID},
	})

	return b.String()
}

func section(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| %s | %s |\n", l10n.T("Item"), l10n.T("Value"))
	b.WriteString("|------|------|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], row[1])
	}
	b.WriteString("\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}
