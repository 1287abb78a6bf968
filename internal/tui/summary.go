package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pixresize/internal/processor"
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

// SummaryRows is the standard table for a finished batch.
func SummaryRows(s processor.Summary) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files processed", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Resized", Value: fmt.Sprintf("%d", s.Succeeded)},
		{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed-s.Cancelled)},
	}
	if s.Cancelled > 0 {
		rows = append(rows, SummaryRow{Label: "Cancelled", Value: fmt.Sprintf("%d", s.Cancelled)})
	}
	rows = append(rows, SummaryRow{Label: "Metadata dropped", Value: fmt.Sprintf("%d", s.MetadataDegraded)})
	return rows
}

// RenderFailures lists every failed file with its error kind. Cancelled
// files are left out; the summary counts them. With notes set, metadata
// notes of successful files are listed as well.
func RenderFailures(s processor.Summary, notes bool) string {
	var lines []string
	for _, res := range s.Results {
		if res.OK() {
			if notes && len(res.Notes) > 0 {
				lines = append(lines, fileStyle.Render(res.Display))
				for _, note := range res.Notes {
					lines = append(lines, "  "+dimStyle.Render("- "+note))
				}
			}
			continue
		}
		if res.Err.Kind == processor.KindCancelled {
			continue
		}
		lines = append(lines, fileStyle.Render(res.Display))
		lines = append(lines, fmt.Sprintf("  %s %s",
			kindStyle.Render(string(res.Err.Kind)+":"),
			valueStyleDim.Render(res.Err.Err.Error()),
		))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle    = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	valueStyleDim = lipgloss.NewStyle().Foreground(ColorInk)
	fileStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	kindStyle     = lipgloss.NewStyle().Foreground(ColorError)
)
