package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/pkg/analysis"
	"github.com/philipparndt/armeasure/pkg/watcher"
)

var (
	areaWatch    bool
	areaLongest  int
	areaDebounce time.Duration
)

var areaCmd = &cobra.Command{
	Use:   "area [file]",
	Short: "Compute perimeter and area of a polygon file",
	Long: `Read a measurement (JSON or YAML with a worldCoordinates list of [x, y, z]
points in meters), close it and print its perimeter, area and edge statistics.
The --mode and --projection settings apply as they do for live measuring.`,
	Args: cobra.ExactArgs(1),
	RunE: runArea,
}

func init() {
	rootCmd.AddCommand(areaCmd)

	areaCmd.Flags().BoolVarP(&areaWatch, "watch", "w", false, "Recompute whenever the file changes")
	areaCmd.Flags().IntVar(&areaLongest, "longest", 3, "Number of longest edges to list")
	areaCmd.Flags().DurationVar(&areaDebounce, "debounce", 200*time.Millisecond, "Delay before recomputing a changed file")
}

func runArea(cmd *cobra.Command, args []string) error {
	filename := args[0]
	out := cmd.OutOrStdout()

	if err := printArea(out, filename); err != nil {
		return err
	}
	if !areaWatch {
		return nil
	}

	fw, err := watcher.NewFileWatcher(areaDebounce, env.log)
	if err != nil {
		return err
	}
	defer fw.Close()

	err = fw.Watch([]string{filename}, func(path string) {
		fmt.Fprintln(out)
		if err := printArea(out, path); err != nil {
			env.log.Warn("cannot measure file", zap.String("file", path), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fw.Start(ctx)
	env.log.Info("watching for changes", zap.String("file", filename))
	<-fw.Done()
	return nil
}

// measureFile runs the file's points through a Measure configured like a live session
func measureFile(filename string, mode measurement.Mode, projection measurement.Projection) (*measurement.Measure, store.ShareData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, store.ShareData{}, errors.Wrap(err, "failed to open measurement")
	}
	defer f.Close()

	data, err := store.ReadShare(f)
	if err != nil {
		return nil, store.ShareData{}, errors.Wrapf(err, "in %s", filename)
	}
	points, err := data.Points()
	if err != nil {
		return nil, store.ShareData{}, errors.Wrapf(err, "in %s", filename)
	}

	m := measurement.New(measurement.WithMode(mode), measurement.WithProjection(projection))
	for _, p := range points {
		if err := m.Add(p); err != nil {
			return nil, store.ShareData{}, err
		}
	}
	if m.IsClosable() {
		if _, err := m.Close(); err != nil {
			return nil, store.ShareData{}, err
		}
	}
	return m, data, nil
}

func printArea(w io.Writer, filename string) error {
	m, data, err := measureFile(filename, env.cfg.Mode, env.cfg.Projection)
	if err != nil {
		return err
	}
	report := analysis.AnalyzePolygon(m.Positions(), m.IsClosed())

	fmt.Fprintln(w, "Polygon Measurement")
	fmt.Fprintln(w, "===================")
	fmt.Fprintf(w, "File: %s\n", filename)
	if data.ScreenShotName != "" {
		fmt.Fprintf(w, "Screenshot: %s\n", data.ScreenShotName)
	}
	fmt.Fprintf(w, "Mode: %s, projection: %s\n\n", m.Mode(), m.Projection())

	fmt.Fprintf(w, "Vertices: %d\n", report.Vertices)
	res, closed := m.Result()
	if !closed {
		fmt.Fprintf(w, "Open polyline, at least %d vertices are needed to close it\n", measurement.MinVertices)
		fmt.Fprintf(w, "  Length: %s\n", analysis.FormatMeasurement(report.Perimeter, "m"))
		return nil
	}
	fmt.Fprintf(w, "  Perimeter: %s\n", analysis.FormatMeasurement(res.Perimeter, "m"))
	fmt.Fprintf(w, "  Area: %s\n", analysis.FormatMeasurement(res.Area, "m²"))
	fmt.Fprintf(w, "  Best-fit area: %s\n", analysis.FormatMeasurement(report.Area, "m²"))
	fmt.Fprintf(w, "  Floor footprint: %s\n", analysis.FormatMeasurement(report.FootprintArea, "m²"))
	fmt.Fprintf(w, "  Normal: %s\n\n", analysis.FormatVector(res.Normal))

	fmt.Fprintln(w, "Extent:")
	fmt.Fprintf(w, "  Min: %s\n", analysis.FormatVector(report.BoundingBox.Min))
	fmt.Fprintf(w, "  Max: %s\n", analysis.FormatVector(report.BoundingBox.Max))
	fmt.Fprintf(w, "  Size: %s\n\n", analysis.FormatVector(report.Dimensions))

	fmt.Fprintln(w, "Edge Lengths:")
	fmt.Fprintf(w, "  Minimum: %s\n", analysis.FormatMeasurement(report.MinEdgeLength, "m"))
	fmt.Fprintf(w, "  Maximum: %s\n", analysis.FormatMeasurement(report.MaxEdgeLength, "m"))
	fmt.Fprintf(w, "  Average: %s\n", analysis.FormatMeasurement(report.AvgEdgeLength, "m"))
	for i, edge := range analysis.FindLongestEdges(report, areaLongest) {
		fmt.Fprintf(w, "  %d. edge %d-%d: %s\n", i+1, edge.Index, (edge.Index+1)%report.Vertices,
			analysis.FormatMeasurement(edge.Length, "m"))
	}
	return nil
}
