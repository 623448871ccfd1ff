package store

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gopkg.in/yaml.v3"

	"github.com/philipparndt/armeasure/pkg/geometry"
)

// ShareData is the portable form of a single measurement
type ShareData struct {
	WorldCoordinates [][]float64 `json:"worldCoordinates" yaml:"worldCoordinates"`
	ScreenShotName   string      `json:"screenShotName,omitempty" yaml:"screenShotName,omitempty"`
}

// Share converts an entry to its portable form
func Share(e Entry) ShareData {
	data := ShareData{
		WorldCoordinates: make([][]float64, 0, len(e.Record.WorldCoordinates)),
		ScreenShotName:   e.Record.ScreenshotName,
	}
	for _, p := range e.Record.WorldCoordinates {
		data.WorldCoordinates = append(data.WorldCoordinates, []float64{p.X, p.Y, p.Z})
	}
	return data
}

// Points returns the world coordinates as vectors
func (d ShareData) Points() ([]geometry.Vector3, error) {
	points := make([]geometry.Vector3, 0, len(d.WorldCoordinates))
	for i, c := range d.WorldCoordinates {
		if len(c) != 3 {
			return nil, errors.Errorf("coordinate %d has %d components, want 3", i, len(c))
		}
		points = append(points, geometry.NewVector3(c[0], c[1], c[2]))
	}
	return points, nil
}

// WriteJSON writes the entry in the portable JSON form
func WriteJSON(w io.Writer, e Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(Share(e)), "failed to write measurement JSON")
}

// ReadShare parses a portable measurement. YAML is accepted as well as JSON.
func ReadShare(r io.Reader) (ShareData, error) {
	var data ShareData
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		return ShareData{}, errors.Wrap(err, "failed to parse measurement")
	}
	if len(data.WorldCoordinates) == 0 {
		return ShareData{}, errors.New("measurement has no worldCoordinates")
	}
	return data, nil
}

// Feature converts an entry into a GeoJSON feature. A closed measurement
// becomes a Polygon whose ring returns to the first vertex; an open one
// becomes a LineString.
func Feature(e Entry) (*geojson.Feature, error) {
	coords := make([]geom.Coord, 0, len(e.Record.WorldCoordinates)+1)
	for _, p := range e.Record.WorldCoordinates {
		coords = append(coords, geom.Coord{p.X, p.Y, p.Z})
	}

	var g geom.T
	var err error
	if e.Record.Closed && len(coords) >= 3 {
		ring := append(coords, coords[0])
		g, err = geom.NewPolygon(geom.XYZ).SetCoords([][]geom.Coord{ring})
	} else {
		g, err = geom.NewLineString(geom.XYZ).SetCoords(coords)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to build geometry")
	}

	props := map[string]interface{}{
		"screenshotName": e.Record.ScreenshotName,
		"closed":         e.Record.Closed,
		"sessionId":      e.SessionID,
		"capturedAt":     e.Record.CapturedAt.UTC().Format(time.RFC3339Nano),
	}
	if e.Record.Closed {
		props["perimeter"] = e.Record.Perimeter
		props["area"] = e.Record.Area
	}

	return &geojson.Feature{
		ID:         e.ID,
		Geometry:   g,
		Properties: props,
	}, nil
}

// WriteGeoJSON writes the entry as a GeoJSON feature
func WriteGeoJSON(w io.Writer, e Entry) error {
	feature, err := Feature(e)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(feature, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal GeoJSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
