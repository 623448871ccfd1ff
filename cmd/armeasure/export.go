package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/internal/store"
)

var (
	exportFormat  string
	exportOut     string
	exportSession uint64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest measurement as JSON or GeoJSON",
	Long: `Export the most recently saved measurement. The JSON form
({"worldCoordinates": [...], "screenShotName": ...}) can be fed back to "armeasure area".
GeoJSON writes a Feature with a 3D Polygon (or LineString when not closed).`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format, one of [json, geojson]")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().Uint64Var(&exportSession, "session", 0, "Export the last measurement of this session instead")
}

func latestEntry(cmd *cobra.Command, st *store.Store) (store.Entry, error) {
	if exportSession == 0 {
		return st.Latest(cmd.Context())
	}
	entries, err := st.Records(cmd.Context(), exportSession)
	if err != nil {
		return store.Entry{}, err
	}
	if len(entries) == 0 {
		return store.Entry{}, errors.Wrapf(store.ErrNotFound, "session %d has no measurements", exportSession)
	}
	return entries[len(entries)-1], nil
}

func runExport(cmd *cobra.Command, args []string) error {
	var write func(io.Writer, store.Entry) error
	switch exportFormat {
	case "json":
		write = store.WriteJSON
	case "geojson":
		write = store.WriteGeoJSON
	default:
		return errors.Errorf("unknown export format %q", exportFormat)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := latestEntry(cmd, st)
	if err != nil {
		return err
	}

	if exportOut == "" {
		return write(cmd.OutOrStdout(), entry)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := write(f, entry); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to write output file")
}
