package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// PrintSummary writes a short human-readable report of an export to w.
// Colour follows color.NoColor.
func PrintSummary(w io.Writer, s Stats) {
	title := color.New(color.FgGreen, color.Bold)
	label := color.New(color.FgCyan)

	title.Fprintf(w, "Exported %d rows to %s (%s)\n", s.Rows, s.Output, s.Format)
	label.Fprint(w, "  source   ")
	fmt.Fprintln(w, s.Input)
	label.Fprint(w, "  window   ")
	fmt.Fprintln(w, s.Window)
	label.Fprint(w, "  badges   ")
	fmt.Fprintf(w, "%d across %d entities and %d dates\n", s.Badges, s.Entities, s.Dates)
	if s.Chart != "" {
		label.Fprint(w, "  chart    ")
		fmt.Fprintln(w, s.Chart)
	}
	if s.Dates == 0 {
		color.New(color.FgYellow).Fprintln(w, "  no badges matched; only the header was written")
	}
	label.Fprint(w, "  took     ")
	fmt.Fprintln(w, s.Duration.Round(time.Millisecond))
}
