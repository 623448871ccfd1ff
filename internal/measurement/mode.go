package measurement

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Mode controls how hit-test points are accepted as vertices
type Mode int

const (
	// ModeNormal accepts points as hit-tested
	ModeNormal Mode = iota
	// ModeHorizontal pins every vertex after the first to the first vertex's height
	ModeHorizontal
)

func (m Mode) String() string {
	switch m {
	case ModeHorizontal:
		return "horizontal"
	default:
		return "normal"
	}
}

// ParseMode parses "normal" or "horizontal"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return ModeNormal, nil
	case "horizontal":
		return ModeHorizontal, nil
	}
	return ModeNormal, errors.Errorf("unknown measure mode %q", s)
}

// constrain applies the mode to a candidate vertex given the current first vertex
func (m Mode) constrain(first *Node, p geometry.Vector3) geometry.Vector3 {
	if m == ModeHorizontal && first != nil {
		p.Y = first.Position.Y
	}
	return p
}

// Projection selects how the 3D loop is flattened for the area computation
type Projection int

const (
	// ProjectionBestFit measures the area on the polygon's best-fit plane
	ProjectionBestFit Projection = iota
	// ProjectionHorizontal drops the up (Y) axis and measures the floor footprint
	ProjectionHorizontal
)

func (p Projection) String() string {
	switch p {
	case ProjectionHorizontal:
		return "horizontal"
	default:
		return "bestfit"
	}
}

// ParseProjection parses "bestfit" or "horizontal"
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bestfit", "best-fit":
		return ProjectionBestFit, nil
	case "horizontal", "floor":
		return ProjectionHorizontal, nil
	}
	return ProjectionBestFit, errors.Errorf("unknown area projection %q", s)
}

func (p Projection) area(points []geometry.Vector3) float64 {
	if p == ProjectionHorizontal {
		return geometry.AreaDroppingAxis(points, r3.YAxis)
	}
	return geometry.Area(points)
}
