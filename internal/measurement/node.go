package measurement

import "github.com/philipparndt/armeasure/pkg/geometry"

// Node is a single placed vertex of the polygon under construction.
// Index is its position in the owning Measure and is always dense (0..n-1).
type Node struct {
	Index    int
	Position geometry.Vector3
}
