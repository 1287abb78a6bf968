package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pixresize/internal/metadata"
	"pixresize/internal/processor"
	"pixresize/internal/tui"
	"pixresize/pkg/imgutil"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List resampling filters and output formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(os.Stdout, formatsHeadingStyle.Render("Filters"))
		for _, f := range processor.Filters {
			fmt.Fprintf(os.Stdout, "  %s %s\n", formatsBulletStyle.Render("-"), formatsValueStyle.Render(string(f)))
		}

		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, formatsHeadingStyle.Render("Formats"))
		for _, f := range imgutil.Formats {
			fmt.Fprintf(os.Stdout, "  %s %s %s\n",
				formatsBulletStyle.Render("-"),
				formatsValueStyle.Render(fmt.Sprintf("%-8s", f)),
				formatsDimStyle.Render(formatCapabilities(f)),
			)
		}
		return nil
	},
}

func formatCapabilities(f imgutil.Format) string {
	if f == imgutil.FormatOriginal {
		return "same format as the source"
	}
	kind := f.Resolve(imgutil.KindUnknown)
	caps := "no metadata"
	switch {
	case metadata.CanEmbedEXIF(kind) && metadata.CanEmbedDPI(kind):
		caps = "EXIF, DPI"
	case metadata.CanEmbedEXIF(kind):
		caps = "EXIF"
	case metadata.CanEmbedDPI(kind):
		caps = "DPI"
	}
	if kind.Lossy() {
		caps += ", quality"
	}
	return caps
}

var (
	formatsHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	formatsValueStyle   = lipgloss.NewStyle().Foreground(tui.ColorInk)
	formatsDimStyle     = lipgloss.NewStyle().Foreground(tui.ColorDim)
	formatsBulletStyle  = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(formatsCmd)
}
