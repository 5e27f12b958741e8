package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"darkroom/pkg/imgutil"
)

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// ExportRows describes an exported file. Empty metadata fields are left out.
func ExportRows(path string, size int, info imgutil.Info, md imgutil.Metadata) []SummaryRow {
	rows := []SummaryRow{
		{Label: "File", Value: path},
		{Label: "Size", Value: humanize.Bytes(uint64(size))},
	}
	if info.Kind != imgutil.KindUnknown {
		rows = append(rows, SummaryRow{Label: "Format", Value: info.Kind.String()})
	}
	if info.Width > 0 && info.Height > 0 {
		rows = append(rows, SummaryRow{Label: "Dimensions", Value: fmt.Sprintf("%dx%d", info.Width, info.Height)})
	}
	camera := strings.TrimSpace(md.Make + " " + md.Model)
	for _, r := range []SummaryRow{
		{Label: "Camera", Value: camera},
		{Label: "Taken", Value: md.Taken},
		{Label: "Software", Value: md.Software},
	} {
		if r.Value != "" {
			rows = append(rows, r)
		}
	}
	if md.Orientation > 1 {
		rows = append(rows, SummaryRow{Label: "Orientation", Value: fmt.Sprint(md.Orientation)})
	}
	return rows
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)
