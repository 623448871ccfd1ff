package measurement

import "github.com/philipparndt/armeasure/pkg/geometry"

// DefaultCloseThreshold is the screen distance in pixels within which a tap
// counts as touching the first vertex.
const DefaultCloseThreshold = 20.0

// Projector maps a world point to screen space
type Projector interface {
	Project(p geometry.Vector3) geometry.Vector2
}

// ProjectorFunc adapts a function to Projector
type ProjectorFunc func(p geometry.Vector3) geometry.Vector2

// Project calls f(p)
func (f ProjectorFunc) Project(p geometry.Vector3) geometry.Vector2 { return f(p) }

// CloseDetector recognizes the close gesture: a tap near the projection of
// the first vertex once the polygon is closable.
type CloseDetector struct {
	Threshold float64 // pixels, DefaultCloseThreshold when <= 0
}

func (d CloseDetector) threshold() float64 {
	if d.Threshold <= 0 {
		return DefaultCloseThreshold
	}
	return d.Threshold
}

// Hit reports whether touch closes m
func (d CloseDetector) Hit(m *Measure, touch geometry.Vector2, proj Projector) bool {
	if !m.IsClosable() {
		return false
	}
	first, _ := m.First()
	return geometry.Distance2(touch, proj.Project(first.Position)) < d.threshold()
}
