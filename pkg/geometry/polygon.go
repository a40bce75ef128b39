package geometry

import "math"

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// PolygonArea computes the unsigned area of a polygon via the shoelace formula.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}
	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// PointToSegmentDistance calculates the minimum distance from a point to a line segment.
func PointToSegmentDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		// Segment is a point
		return p.Distance(a)
	}

	// Parameter t of closest point on infinite line
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)

	// Clamp to segment
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return p.Distance(Point2D{X: a.X + t*dx, Y: a.Y + t*dy})
}

// PointToPolylineDistance calculates the minimum distance from a point to an
// open polyline. A single-point polyline degenerates to point distance.
func PointToPolylineDistance(p Point2D, path []Point2D) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return p.Distance(path[0])
	}

	best := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		if d := PointToSegmentDistance(p, path[i], path[i+1]); d < best {
			best = d
		}
	}
	return best
}
