package convert

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"masklab/internal/annotation"
)

func newTestMask(t *testing.T, w, h int) *gocv.Mat {
	t.Helper()
	mask := gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	t.Cleanup(func() { mask.Close() })
	return &mask
}

func fillRect(mask *gocv.Mat, r image.Rectangle, value uint8) {
	gocv.Rectangle(mask, r, color.RGBA{R: value, G: value, B: value, A: 255}, -1)
}

func TestVectorizeRecoversRegions(t *testing.T) {
	mask := newTestMask(t, 100, 80)
	fillRect(mask, image.Rect(10, 10, 40, 30), 1)
	fillRect(mask, image.Rect(50, 40, 90, 70), 2)

	set, stats, err := Vectorize(*mask, map[uint8]string{1: "lines", 2: "object"})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}

	if set.OriginalSize != (annotation.SizePx{Width: 100, Height: 80}) {
		t.Errorf("original size = %+v, want 100x80", set.OriginalSize)
	}
	if len(set.Annotations) != 2 {
		t.Fatalf("got %d annotations, want 2", len(set.Annotations))
	}
	for i, a := range set.Annotations {
		if a.Type != annotation.TypeFreehand {
			t.Errorf("annotation %d type = %q, want freehand", i, a.Type)
		}
	}
	// Pixel values are processed in ascending order.
	if set.Annotations[0].Label != "lines" || set.Annotations[1].Label != "object" {
		t.Errorf("labels = [%s %s], want [lines object]", set.Annotations[0].Label, set.Annotations[1].Label)
	}
	if len(stats) != 2 || stats[0].Contours != 1 || stats[1].Contours != 1 {
		t.Errorf("stats = %+v, want one contour per class", stats)
	}
}

func TestVectorizeDeterministic(t *testing.T) {
	mask := newTestMask(t, 120, 120)
	fillRect(mask, image.Rect(5, 5, 30, 30), 1)
	fillRect(mask, image.Rect(40, 40, 70, 90), 2)
	fillRect(mask, image.Rect(80, 10, 110, 25), 2)

	mapping := map[uint8]string{1: "lines", 2: "object"}

	first, _, err := Vectorize(*mask, mapping)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for run := 0; run < 3; run++ {
		set, _, err := Vectorize(*mask, mapping)
		if err != nil {
			t.Fatalf("Vectorize run %d: %v", run, err)
		}
		data, err := json.Marshal(set)
		if err != nil {
			t.Fatalf("marshal run %d: %v", run, err)
		}
		if !bytes.Equal(data, firstJSON) {
			t.Fatalf("run %d output differs from first run", run)
		}
	}
}

func TestVectorizeEmptyMask(t *testing.T) {
	mask := newTestMask(t, 50, 50)
	set, stats, err := Vectorize(*mask, map[uint8]string{1: "lines"})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if len(set.Annotations) != 0 || len(stats) != 0 {
		t.Errorf("got %d annotations and %d stats from an all-zero mask, want none",
			len(set.Annotations), len(stats))
	}
}

func TestVectorizeDiscardsNoise(t *testing.T) {
	mask := newTestMask(t, 50, 50)
	mask.SetUCharAt(10, 10, 1) // single pixel, area 0
	fillRect(mask, image.Rect(20, 20, 40, 40), 1)

	set, stats, err := Vectorize(*mask, map[uint8]string{1: "lines"})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if len(set.Annotations) != 1 {
		t.Fatalf("got %d annotations, want noise pixel discarded and 1 region kept", len(set.Annotations))
	}
	if stats[0].Contours != 1 {
		t.Errorf("stats = %+v, want 1 contour", stats[0])
	}
}

func TestVectorizeIgnoresUnmappedValues(t *testing.T) {
	mask := newTestMask(t, 50, 50)
	fillRect(mask, image.Rect(5, 5, 20, 20), 3)

	set, _, err := Vectorize(*mask, map[uint8]string{1: "lines"})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if len(set.Annotations) != 0 {
		t.Errorf("got %d annotations for an unmapped pixel value, want 0", len(set.Annotations))
	}
}

func TestVectorizeMultipleContoursStats(t *testing.T) {
	mask := newTestMask(t, 100, 100)
	fillRect(mask, image.Rect(5, 5, 25, 25), 1)
	fillRect(mask, image.Rect(50, 50, 70, 70), 1)

	_, stats, err := Vectorize(*mask, map[uint8]string{1: "lines"})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d stats entries, want 1", len(stats))
	}
	if stats[0].Contours != 2 {
		t.Errorf("contours = %d, want 2", stats[0].Contours)
	}
	if stats[0].MeanArea <= 0 {
		t.Errorf("mean area = %v, want positive", stats[0].MeanArea)
	}
	// Two equal regions have zero spread.
	if stats[0].StdDevArea != 0 {
		t.Errorf("stddev = %v for equal regions, want 0", stats[0].StdDevArea)
	}
}

func TestVectorizeRejectsMultiChannelMask(t *testing.T) {
	mask := gocv.Zeros(10, 10, gocv.MatTypeCV8UC3)
	defer mask.Close()
	if _, _, err := Vectorize(mask, map[uint8]string{1: "lines"}); err == nil {
		t.Error("Vectorize accepted a 3-channel mask")
	}
}
