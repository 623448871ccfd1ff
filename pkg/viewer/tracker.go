package viewer

import (
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// PlaneTracker stands in for the camera tracking stack: it hit-tests screen
// points against a single infinite horizontal plane seen through Camera.
type PlaneTracker struct {
	Camera      *Camera
	Height      float64 // Y of the detected plane
	MaxDistance float64 // Hits farther than this from the camera are dropped; 0 means unlimited
}

// NewPlaneTracker creates a tracker for a floor at the given height
func NewPlaneTracker(camera *Camera, height float64) *PlaneTracker {
	return &PlaneTracker{Camera: camera, Height: height}
}

// WorldPosition returns the world point under a screen position, or false
// when the ray misses the plane.
func (t *PlaneTracker) WorldPosition(screen geometry.Vector2) (geometry.Vector3, bool) {
	origin, dir := t.Camera.Unproject(screen)
	if dir.Y > -1e-9 && dir.Y < 1e-9 {
		return geometry.Vector3{}, false
	}
	dist := (t.Height - origin.Y) / dir.Y
	if dist <= 0 {
		return geometry.Vector3{}, false
	}
	if t.MaxDistance > 0 && dist > t.MaxDistance {
		return geometry.Vector3{}, false
	}
	hit := origin.Add(dir.Mul(dist))
	hit.Y = t.Height
	return hit, true
}

// Project maps a world point to screen coordinates
func (t *PlaneTracker) Project(p geometry.Vector3) geometry.Vector2 {
	return t.Camera.Project(p)
}
