package geometry

import (
	"math"
	"testing"
)

var unitSquare = []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func TestPointInPolygon(t *testing.T) {
	cases := []struct {
		p    Point2D
		want bool
	}{
		{Point2D{5, 5}, true},
		{Point2D{15, 5}, false},
		{Point2D{-1, 5}, false},
		{Point2D{5, 11}, false},
	}
	for _, tc := range cases {
		if got := PointInPolygon(tc.p, unitSquare); got != tc.want {
			t.Errorf("PointInPolygon(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}

	if PointInPolygon(Point2D{0, 0}, unitSquare[:2]) {
		t.Error("two points are not a polygon")
	}
}

func TestPolygonArea(t *testing.T) {
	if got := PolygonArea(unitSquare); got != 100 {
		t.Errorf("square area = %g, want 100", got)
	}
	triangle := []Point2D{{0, 0}, {4, 0}, {0, 3}}
	if got := PolygonArea(triangle); got != 6 {
		t.Errorf("triangle area = %g, want 6", got)
	}
	if got := PolygonArea(triangle[:2]); got != 0 {
		t.Errorf("degenerate area = %g, want 0", got)
	}
}

func TestPointToSegmentDistance(t *testing.T) {
	a := Point2D{0, 0}
	b := Point2D{10, 0}

	cases := []struct {
		p    Point2D
		want float64
	}{
		{Point2D{5, 3}, 3},   // above the middle
		{Point2D{-4, 3}, 5},  // beyond endpoint a
		{Point2D{13, 4}, 5},  // beyond endpoint b
		{Point2D{10, 0}, 0},  // on the segment
	}
	for _, tc := range cases {
		if got := PointToSegmentDistance(tc.p, a, b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("PointToSegmentDistance(%v) = %g, want %g", tc.p, got, tc.want)
		}
	}

	// Zero-length segment degenerates to point distance.
	if got := PointToSegmentDistance(Point2D{3, 4}, a, a); math.Abs(got-5) > 1e-9 {
		t.Errorf("point segment distance = %g, want 5", got)
	}
}

func TestPointToPolylineDistance(t *testing.T) {
	path := []Point2D{{0, 0}, {10, 0}, {10, 10}}

	if got := PointToPolylineDistance(Point2D{12, 5}, path); math.Abs(got-2) > 1e-9 {
		t.Errorf("distance = %g, want 2", got)
	}
	if got := PointToPolylineDistance(Point2D{3, 4}, path[:1]); math.Abs(got-5) > 1e-9 {
		t.Errorf("single point distance = %g, want 5", got)
	}
	if got := PointToPolylineDistance(Point2D{}, nil); !math.IsInf(got, 1) {
		t.Errorf("empty path distance = %g, want +Inf", got)
	}
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox([]Point2D{{5, 9}, {-2, 3}, {7, 4}})
	want := Rect{X: -2, Y: 3, Width: 9, Height: 6}
	if box != want {
		t.Errorf("BoundingBox = %+v, want %+v", box, want)
	}
	if got := BoundingBox(nil); got != (Rect{}) {
		t.Errorf("empty BoundingBox = %+v", got)
	}
}
