package colorutil

import (
	"image/color"
	"testing"
)

func TestHSVToRGBPrimaries(t *testing.T) {
	cases := []struct {
		h, s, v float64
		want    color.RGBA
	}{
		{0, 1, 1, color.RGBA{255, 0, 0, 255}},
		{120, 1, 1, color.RGBA{0, 255, 0, 255}},
		{240, 1, 1, color.RGBA{0, 0, 255, 255}},
		{60, 1, 1, color.RGBA{255, 255, 0, 255}},
		{0, 0, 1, color.RGBA{255, 255, 255, 255}},
		{0, 0, 0, color.RGBA{0, 0, 0, 255}},
	}
	for _, tc := range cases {
		if got := HSVToRGB(tc.h, tc.s, tc.v); got != tc.want {
			t.Errorf("HSVToRGB(%g, %g, %g) = %v, want %v", tc.h, tc.s, tc.v, got, tc.want)
		}
	}
}

func TestHSVToRGBWrapsHue(t *testing.T) {
	if got, want := HSVToRGB(360+120, 1, 1), HSVToRGB(120, 1, 1); got != want {
		t.Errorf("wrapped hue = %v, want %v", got, want)
	}
	if got, want := HSVToRGB(-120, 1, 1), HSVToRGB(240, 1, 1); got != want {
		t.Errorf("negative hue = %v, want %v", got, want)
	}
}

func TestHSVToRGBDistinctHues(t *testing.T) {
	// Golden-angle stepping should keep consecutive generated colors apart.
	seen := make(map[color.RGBA]int)
	for i := 1; i <= 12; i++ {
		c := HSVToRGB(float64(i)*137.5, 0.75, 0.95)
		if prev, dup := seen[c]; dup {
			t.Fatalf("hue step %d repeats color of step %d: %v", i, prev, c)
		}
		seen[c] = i
	}
}
