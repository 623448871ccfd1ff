package geometry

import "github.com/golang/geo/r2"

// Vector2 is a point in screen space (pixels). It is the golang/geo planar point,
// so Add, Sub, Mul, Dot, Cross and Norm come with it.
type Vector2 = r2.Point

// NewVector2 creates a new 2D point
func NewVector2(x, y float64) Vector2 {
	return r2.Point{X: x, Y: y}
}

// Distance2 returns the distance between two screen points
func Distance2(a, b Vector2) float64 {
	return a.Sub(b).Norm()
}
