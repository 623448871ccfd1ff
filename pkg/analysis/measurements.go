package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/philipparndt/armeasure/pkg/geometry"
)

// EdgeInfo describes one edge of a measured polygon
type EdgeInfo struct {
	Start  geometry.Vector3
	End    geometry.Vector3
	Length float64
	Index  int // edge i runs from vertex i to vertex i+1
}

// PolygonReport contains the measurements of a vertex loop
type PolygonReport struct {
	Vertices      int
	Closed        bool
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	Perimeter     float64 // includes the closing edge only when Closed
	Area          float64 // best-fit plane
	FootprintArea float64 // projected onto the floor
	Normal        geometry.Vector3
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
	Edges         []EdgeInfo
}

// AnalyzePolygon measures the points as a polyline, or as a loop when closed.
// Areas stay zero for fewer than three points.
func AnalyzePolygon(points []geometry.Vector3, closed bool) *PolygonReport {
	report := &PolygonReport{
		Vertices:    len(points),
		Closed:      closed,
		BoundingBox: geometry.BoundsOf(points),
		Edges:       make([]EdgeInfo, 0, len(points)),
	}
	if len(points) > 0 {
		report.Dimensions = report.BoundingBox.Size()
	}

	edgeCount := len(points) - 1
	if closed && len(points) > 2 {
		edgeCount = len(points)
	}

	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0
	for i := 0; i < edgeCount; i++ {
		start, end := points[i], points[(i+1)%len(points)]
		length := start.Distance(end)
		report.Edges = append(report.Edges, EdgeInfo{
			Start:  start,
			End:    end,
			Length: length,
			Index:  i,
		})

		totalLength += length
		minLength = math.Min(minLength, length)
		maxLength = math.Max(maxLength, length)
	}

	report.Perimeter = totalLength
	if len(report.Edges) > 0 {
		report.MinEdgeLength = minLength
		report.MaxEdgeLength = maxLength
		report.AvgEdgeLength = totalLength / float64(len(report.Edges))
	}

	if len(points) >= 3 {
		report.Area = geometry.Area(points)
		report.FootprintArea = geometry.AreaDroppingAxis(points, r3.YAxis)
		report.Normal = geometry.Normal(points)
	}
	return report
}

// FindEdgesByLength finds all edges within a length range
func FindEdgesByLength(report *PolygonReport, minLength, maxLength float64) []EdgeInfo {
	var edges []EdgeInfo
	for _, edge := range report.Edges {
		if edge.Length >= minLength && edge.Length <= maxLength {
			edges = append(edges, edge)
		}
	}
	return edges
}

// FindLongestEdges returns the N longest edges of the polygon
func FindLongestEdges(report *PolygonReport, count int) []EdgeInfo {
	return sortedEdges(report, count, func(a, b EdgeInfo) bool { return a.Length > b.Length })
}

// FindShortestEdges returns the N shortest edges of the polygon
func FindShortestEdges(report *PolygonReport, count int) []EdgeInfo {
	return sortedEdges(report, count, func(a, b EdgeInfo) bool { return a.Length < b.Length })
}

func sortedEdges(report *PolygonReport, count int, less func(a, b EdgeInfo) bool) []EdgeInfo {
	edges := make([]EdgeInfo, len(report.Edges))
	copy(edges, report.Edges)

	sort.SliceStable(edges, func(i, j int) bool {
		return less(edges[i], edges[j])
	})

	if count > len(edges) {
		count = len(edges)
	}
	if count < 0 {
		count = 0
	}
	return edges[:count]
}

// FindNearestVertex finds the vertex nearest to a given point.
// The index is -1 for an empty polygon.
func FindNearestVertex(points []geometry.Vector3, point geometry.Vector3) (int, float64) {
	nearest := -1
	minDistance := math.MaxFloat64
	for i, vertex := range points {
		if distance := point.Distance(vertex); distance < minDistance {
			minDistance = distance
			nearest = i
		}
	}
	return nearest, minDistance
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "m"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
