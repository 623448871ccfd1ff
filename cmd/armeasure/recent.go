package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/pkg/analysis"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recently saved measurement",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	rootCmd.AddCommand(recentCmd)
}

func runRecent(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := st.Latest(cmd.Context())
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No measurements saved yet")
		return nil
	}
	if err != nil {
		return err
	}
	printEntry(cmd.OutOrStdout(), entry)
	return nil
}

func printEntry(w io.Writer, e store.Entry) {
	rec := e.Record
	fmt.Fprintf(w, "Measurement %s\n", e.ID)
	fmt.Fprintf(w, "  Session: %d, #%d\n", e.SessionID, e.Seq)
	fmt.Fprintf(w, "  Screenshot: %s\n", rec.ScreenshotName)
	fmt.Fprintf(w, "  Captured: %s (%s)\n", rec.CapturedAt.Format("2006-01-02 15:04:05"), humanize.Time(rec.CapturedAt))
	fmt.Fprintf(w, "  Vertices: %d\n", len(rec.WorldCoordinates))
	if !rec.Closed {
		fmt.Fprintln(w, "  Open, no area")
		return
	}
	fmt.Fprintf(w, "  Perimeter: %s\n", analysis.FormatMeasurement(rec.Perimeter, "m"))
	fmt.Fprintf(w, "  Area: %s\n", analysis.FormatMeasurement(rec.Area, "m²"))
}
