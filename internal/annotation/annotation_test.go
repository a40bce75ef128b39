package annotation

import (
	"encoding/json"
	"testing"

	"masklab/pkg/geometry"
)

func TestNewRectangleNormalizesCorners(t *testing.T) {
	a := NewRectangle("object", geometry.Point2D{X: 90, Y: 10}, geometry.Point2D{X: 20, Y: 70})

	want := []geometry.Point2D{{X: 20, Y: 10}, {X: 90, Y: 70}}
	if a.Points[0] != want[0] || a.Points[1] != want[1] {
		t.Fatalf("corners = %v, want %v", a.Points, want)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsDegenerateShapes(t *testing.T) {
	cases := []struct {
		name string
		a    Annotation
	}{
		{"thin rectangle", NewRectangle("object", geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 50, Y: 10.5})},
		{"short line", NewLine("lines", geometry.Point2D{X: 5, Y: 5}, geometry.Point2D{X: 5.2, Y: 5.2})},
		{"empty freehand", NewFreehand("path", nil)},
		{"empty label", NewLine("", geometry.Point2D{}, geometry.Point2D{X: 10, Y: 10})},
		{"unknown type", Annotation{Label: "object", Type: Type("blob"), Points: []geometry.Point2D{{X: 1, Y: 1}}}},
	}
	for _, tc := range cases {
		if err := tc.a.Validate(); err == nil {
			t.Errorf("%s: Validate did not fail", tc.name)
		}
	}
}

func TestAnnotationJSONRoundTrip(t *testing.T) {
	set := Set{
		Annotations: []Annotation{
			NewRectangle("object", geometry.Point2D{X: 10, Y: 20}, geometry.Point2D{X: 110, Y: 220}),
			NewFreehand("path", []geometry.Point2D{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}),
		},
		OriginalSize: SizePx{Width: 640, Height: 480},
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Set
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.OriginalSize != set.OriginalSize {
		t.Errorf("size = %v, want %v", got.OriginalSize, set.OriginalSize)
	}
	if len(got.Annotations) != 2 {
		t.Fatalf("got %d annotations, want 2", len(got.Annotations))
	}
	for i, a := range got.Annotations {
		orig := set.Annotations[i]
		if a.Label != orig.Label || a.Type != orig.Type || len(a.Points) != len(orig.Points) {
			t.Errorf("annotation %d = %+v, want %+v", i, a, orig)
		}
	}
}

func TestUnmarshalLegacyFlatCoordinates(t *testing.T) {
	record := `{
		"annotations": [
			{"label": "lines", "type": "line", "coordinates_original": [10, 20, 30, 40]}
		],
		"original_size": [100, 50]
	}`

	var set Set
	if err := json.Unmarshal([]byte(record), &set); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	a := set.Annotations[0]
	if len(a.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(a.Points))
	}
	if a.Points[0] != (geometry.Point2D{X: 10, Y: 20}) || a.Points[1] != (geometry.Point2D{X: 30, Y: 40}) {
		t.Errorf("points = %v", a.Points)
	}
}

func TestUnmarshalRejectsBadCoordinates(t *testing.T) {
	for _, record := range []string{
		`{"label": "lines", "type": "line"}`,
		`{"label": "lines", "type": "line", "coordinates_original": [1, 2, 3]}`,
		`{"label": "lines", "type": "line", "coordinates_original": "nope"}`,
	} {
		var a Annotation
		if err := json.Unmarshal([]byte(record), &a); err == nil {
			t.Errorf("no error for %s", record)
		}
	}
}

func TestSizePxEncoding(t *testing.T) {
	data, err := json.Marshal(SizePx{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[1920,1080]" {
		t.Errorf("encoded size = %s", data)
	}
	if (SizePx{Width: 0, Height: 10}).IsValid() {
		t.Error("zero width reported valid")
	}
}
