package viewer

import (
	"math"

	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Camera is a pinhole camera looking at Target from Position, rendering into
// a Width x Height pixel viewport with the origin in the top-left corner.
type Camera struct {
	Position geometry.Vector3
	Target   geometry.Vector3
	Up       geometry.Vector3
	FOV      float64 // Vertical field of view in radians
	Width    float64
	Height   float64
}

// NewCamera creates a Y-up camera with the field of view given in degrees
func NewCamera(position, target geometry.Vector3, fovDegrees, width, height float64) *Camera {
	return &Camera{
		Position: position,
		Target:   target,
		Up:       geometry.NewVector3(0, 1, 0),
		FOV:      fovDegrees * math.Pi / 180,
		Width:    width,
		Height:   height,
	}
}

// basis returns the camera's forward, right and up unit vectors
func (c *Camera) basis() (forward, right, up geometry.Vector3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward).Normalize()
	return forward, right, up
}

// Project projects a 3D point to 2D screen coordinates
func (c *Camera) Project(point geometry.Vector3) geometry.Vector2 {
	screen, _ := c.ProjectDepth(point)
	return screen
}

// ProjectDepth projects a 3D point and also returns its depth along the view axis
func (c *Camera) ProjectDepth(point geometry.Vector3) (geometry.Vector2, float64) {
	forward, right, up := c.basis()

	// Transform to camera space
	relative := point.Sub(c.Position)
	x := relative.Dot(right)
	y := relative.Dot(up)
	z := relative.Dot(forward)

	// Perspective projection
	if z <= 0.01 {
		z = 0.01 // Prevent division by zero
	}

	aspect := c.Width / c.Height
	fovScale := math.Tan(c.FOV / 2)

	screenX := (x/(z*fovScale*aspect))*(c.Width/2) + (c.Width / 2)
	screenY := (-y/(z*fovScale))*(c.Height/2) + (c.Height / 2)

	return geometry.NewVector2(screenX, screenY), z
}

// Unproject converts 2D screen coordinates back to a world-space ray
func (c *Camera) Unproject(screen geometry.Vector2) (origin, direction geometry.Vector3) {
	// Convert screen coordinates to normalized device coordinates (-1 to 1)
	ndcX := (2.0 * screen.X / c.Width) - 1.0
	ndcY := 1.0 - (2.0 * screen.Y / c.Height)

	aspect := c.Width / c.Height
	fovScale := math.Tan(c.FOV / 2)

	forward, right, up := c.basis()

	rayDir := forward.Add(right.Mul(ndcX * fovScale * aspect)).Add(up.Mul(ndcY * fovScale))
	return c.Position, rayDir.Normalize()
}
