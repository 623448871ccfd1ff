package viewer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/philipparndt/armeasure/pkg/geometry"
)

func testCamera() *Camera {
	return NewCamera(
		geometry.NewVector3(0, 1.5, 2),
		geometry.NewVector3(0, 0, 0),
		60, 1000, 800,
	)
}

func TestProjectTargetIsCentered(t *testing.T) {
	cam := testCamera()

	screen, depth := cam.ProjectDepth(cam.Target)
	require.InDelta(t, 500, screen.X, 1e-9)
	require.InDelta(t, 400, screen.Y, 1e-9)
	require.InDelta(t, 2.5, depth, 1e-9)
}

func TestUnprojectInvertsProject(t *testing.T) {
	cam := testCamera()
	point := geometry.NewVector3(0.4, 0, -0.3)

	screen := cam.Project(point)
	origin, dir := cam.Unproject(screen)

	require.InDelta(t, 1.0, dir.Length(), 1e-9)
	toPoint := point.Sub(origin).Normalize()
	require.True(t, dir.ApproxEqual(toPoint, 1e-9), "ray %v should point at %v", dir, toPoint)
}

func TestPlaneTrackerRoundTrip(t *testing.T) {
	tracker := NewPlaneTracker(testCamera(), 0)

	for _, p := range []geometry.Vector3{
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(0.5, 0, 0.5),
		geometry.NewVector3(-0.7, 0, -1.2),
	} {
		hit, ok := tracker.WorldPosition(tracker.Project(p))
		require.True(t, ok)
		require.True(t, hit.ApproxEqual(p, 1e-6), "expected %v, got %v", p, hit)
	}
}

func TestPlaneTrackerMisses(t *testing.T) {
	// pitched down by about 14 degrees, so the top of a 60 degree view is above the horizon
	level := NewCamera(geometry.NewVector3(0, 1.5, 2), geometry.NewVector3(0, 1, 0), 60, 1000, 800)
	_, ok := NewPlaneTracker(level, 0).WorldPosition(geometry.NewVector2(500, 0))
	require.False(t, ok)

	tracker := NewPlaneTracker(testCamera(), 0)
	tracker.MaxDistance = 1
	_, ok = tracker.WorldPosition(geometry.NewVector2(500, 400))
	require.False(t, ok, "target is 2.5 m away")
}

func TestPlaneTrackerHeight(t *testing.T) {
	tracker := NewPlaneTracker(testCamera(), 0.75)

	hit, ok := tracker.WorldPosition(geometry.NewVector2(500, 400))
	require.True(t, ok)
	require.Equal(t, 0.75, hit.Y)
	require.False(t, math.IsNaN(hit.X))
}
