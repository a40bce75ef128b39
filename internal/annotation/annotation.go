// Package annotation provides the vector annotation data model and its
// per-image persistence.
package annotation

import (
	"encoding/json"
	"fmt"
	"math"

	"masklab/pkg/geometry"
)

// Type identifies the shape of an annotation.
type Type string

const (
	TypeRectangle Type = "rectangle"
	TypeLine      Type = "line"
	TypeFreehand  Type = "freehand"
)

// MinExtent is the minimum size, in original-image pixels, for a rectangle
// edge or line length to be considered non-degenerate.
const MinExtent = 1.0

// Annotation is a single labeled shape. Points are always in original-image
// pixel coordinates, never view coordinates, so persisted geometry survives
// zoom, pan, and window resizing.
type Annotation struct {
	Label  string
	Type   Type
	Points []geometry.Point2D
}

// NewRectangle creates a rectangle annotation from two opposite corners,
// normalized so the first point is the min corner and the second is the max.
func NewRectangle(label string, p1, p2 geometry.Point2D) Annotation {
	return Annotation{
		Label: label,
		Type:  TypeRectangle,
		Points: []geometry.Point2D{
			{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
			{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
		},
	}
}

// NewLine creates a line annotation between two points.
func NewLine(label string, p1, p2 geometry.Point2D) Annotation {
	return Annotation{Label: label, Type: TypeLine, Points: []geometry.Point2D{p1, p2}}
}

// NewFreehand creates a freehand polyline annotation. A single input point is
// normalized to a one-point sequence rather than rejected.
func NewFreehand(label string, points []geometry.Point2D) Annotation {
	pts := make([]geometry.Point2D, len(points))
	copy(pts, points)
	return Annotation{Label: label, Type: TypeFreehand, Points: pts}
}

// Validate checks the label, the point count for the declared type, and the
// minimum-extent rule for rectangles and lines.
func (a Annotation) Validate() error {
	if a.Label == "" {
		return fmt.Errorf("annotation has empty label")
	}
	switch a.Type {
	case TypeRectangle:
		if len(a.Points) != 2 {
			return fmt.Errorf("rectangle needs 2 points, got %d", len(a.Points))
		}
		if math.Abs(a.Points[1].X-a.Points[0].X) < MinExtent ||
			math.Abs(a.Points[1].Y-a.Points[0].Y) < MinExtent {
			return fmt.Errorf("rectangle extent below %g px", MinExtent)
		}
	case TypeLine:
		if len(a.Points) != 2 {
			return fmt.Errorf("line needs 2 points, got %d", len(a.Points))
		}
		if a.Points[0].Distance(a.Points[1]) < MinExtent {
			return fmt.Errorf("line shorter than %g px", MinExtent)
		}
	case TypeFreehand:
		if len(a.Points) < 1 {
			return fmt.Errorf("freehand needs at least 1 point")
		}
	default:
		return fmt.Errorf("unknown annotation type %q", a.Type)
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the annotation.
func (a Annotation) Bounds() geometry.Rect {
	return geometry.BoundingBox(a.Points)
}

// annotationJSON is the on-disk representation: coordinates are a flat list
// of [x,y] pairs.
type annotationJSON struct {
	Label       string          `json:"label"`
	Type        Type            `json:"type"`
	Coordinates json.RawMessage `json:"coordinates_original"`
}

// MarshalJSON encodes coordinates as [[x,y], ...].
func (a Annotation) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(a.Points))
	for i, p := range a.Points {
		pairs[i] = [2]float64{p.X, p.Y}
	}
	coords, err := json.Marshal(pairs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(annotationJSON{Label: a.Label, Type: a.Type, Coordinates: coords})
}

// UnmarshalJSON accepts coordinates either as [[x,y], ...] pairs or as the
// legacy flat form [x1,y1,x2,y2] used by older rectangle/line records.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw annotationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Coordinates == nil {
		return fmt.Errorf("annotation %q: missing coordinates_original", raw.Label)
	}

	points, err := decodeCoordinates(raw.Coordinates)
	if err != nil {
		return fmt.Errorf("annotation %q: %w", raw.Label, err)
	}

	a.Label = raw.Label
	a.Type = raw.Type
	a.Points = points
	return nil
}

func decodeCoordinates(raw json.RawMessage) ([]geometry.Point2D, error) {
	var pairs [][2]float64
	if err := json.Unmarshal(raw, &pairs); err == nil {
		points := make([]geometry.Point2D, len(pairs))
		for i, pr := range pairs {
			points[i] = geometry.Point2D{X: pr[0], Y: pr[1]}
		}
		return points, nil
	}

	var flat []float64
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("malformed coordinates_original")
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("odd coordinate count %d", len(flat))
	}
	points := make([]geometry.Point2D, len(flat)/2)
	for i := range points {
		points[i] = geometry.Point2D{X: flat[2*i], Y: flat[2*i+1]}
	}
	return points, nil
}

// SizePx is an integer pixel size, serialized as [width, height].
type SizePx struct {
	Width  int
	Height int
}

// IsValid reports whether both dimensions are strictly positive.
func (s SizePx) IsValid() bool {
	return s.Width > 0 && s.Height > 0
}

// MarshalJSON encodes the size as [width, height].
func (s SizePx) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Width, s.Height})
}

// UnmarshalJSON decodes [width, height].
func (s *SizePx) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("malformed original_size: %w", err)
	}
	s.Width, s.Height = pair[0], pair[1]
	return nil
}

// Set is the ordered collection of annotations for one image. The order is
// paint order: rasterization draws annotations in sequence, with later
// shapes overwriting earlier ones.
type Set struct {
	Annotations  []Annotation `json:"annotations"`
	OriginalSize SizePx       `json:"original_size"`
}
