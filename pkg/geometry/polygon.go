package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Perimeter returns the length of the closed loop through points, including
// the edge from the last point back to the first.
func Perimeter(points []Vector3) float64 {
	if len(points) < 2 {
		return 0
	}
	return PathLength(points) + points[len(points)-1].Distance(points[0])
}

// PathLength returns the length of the open polyline through points
func PathLength(points []Vector3) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].Distance(points[i])
	}
	return total
}

// Centroid returns the average of the points
func Centroid(points []Vector3) Vector3 {
	if len(points) == 0 {
		return Vector3{}
	}
	var sum Vector3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// VectorArea returns the Newell vector of the closed loop: Σ v_i × v_{i+1}.
// Its direction is the normal of the best-fit plane (right-hand rule over the
// winding) and its length is twice the area of the loop projected onto that plane.
//
// Points are taken relative to their centroid, which keeps the sum well
// conditioned for polygons far from the world origin.
func VectorArea(points []Vector3) Vector3 {
	n := len(points)
	if n < 3 {
		return Vector3{}
	}
	c := Centroid(points)
	var sum Vector3
	for i := 0; i < n; i++ {
		a := points[i].Sub(c)
		b := points[(i+1)%n].Sub(c)
		sum = sum.Add(a.Cross(b))
	}
	return sum
}

// Normal returns the unit normal of the best-fit plane, or the zero vector
// when the points are collinear or fewer than three.
func Normal(points []Vector3) Vector3 {
	return VectorArea(points).Normalize()
}

// Area returns the non-negative area of the closed loop projected onto its
// best-fit plane. Collinear loops have zero area.
func Area(points []Vector3) float64 {
	return 0.5 * VectorArea(points).Length()
}

// DominantAxis returns the axis along which normal has the largest magnitude.
// Dropping that axis gives the least distorted 2D view of the polygon.
func DominantAxis(normal Vector3) r3.Axis {
	return normal.R3().LargestComponent()
}

// DropAxis projects points to 2D by discarding one coordinate.
// Dropping Y keeps (X, Z), the floor plane of a Y-up world.
func DropAxis(points []Vector3, axis r3.Axis) []Vector2 {
	points2D := make([]Vector2, len(points))
	for i, p := range points {
		switch axis {
		case r3.XAxis:
			points2D[i] = NewVector2(p.Y, p.Z)
		case r3.YAxis:
			points2D[i] = NewVector2(p.X, p.Z)
		default:
			points2D[i] = NewVector2(p.X, p.Y)
		}
	}
	return points2D
}

// SignedArea returns the signed area of a closed 2D loop using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func SignedArea(points []Vector2) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return area / 2
}

// AreaDroppingAxis returns the shoelace area of the loop after discarding axis
func AreaDroppingAxis(points []Vector3, axis r3.Axis) float64 {
	return math.Abs(SignedArea(DropAxis(points, axis)))
}
