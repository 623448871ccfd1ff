package measurement

import (
	"time"

	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Record is an immutable copy of a measurement, detached from the engine and
// ready to be handed to persistence.
type Record struct {
	ScreenshotName    string
	WorldCoordinates  []geometry.Vector3
	ScreenCoordinates []geometry.Vector2
	Closed            bool
	Perimeter         float64
	Area              float64
	CapturedAt        time.Time
}

// Snapshot copies the current vertices into a Record. Screen coordinates are
// projected once, here. Perimeter and area are only set for a closed polygon.
func (m *Measure) Snapshot(proj Projector, screenshotName string, at time.Time) (Record, error) {
	if len(m.nodes) == 0 {
		return Record{}, &InvalidStateError{Op: "snapshot", Need: 1}
	}
	rec := Record{
		ScreenshotName:    screenshotName,
		WorldCoordinates:  m.Positions(),
		ScreenCoordinates: make([]geometry.Vector2, len(m.nodes)),
		Closed:            m.closed,
		CapturedAt:        at,
	}
	for i, n := range m.nodes {
		rec.ScreenCoordinates[i] = proj.Project(n.Position)
	}
	if m.closed {
		rec.Perimeter = m.result.Perimeter
		rec.Area = m.result.Area
	}
	return rec, nil
}
