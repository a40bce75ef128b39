// Package convert turns vector annotation records into raster class masks
// and extracts vector annotations back out of masks.
package convert

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"masklab/internal/annotation"
	"masklab/pkg/geometry"
)

// DefaultThickness is the stroke thickness, in pixels, for line and
// freehand annotations.
const DefaultThickness = 5

// RasterizeOptions controls mask rendering.
type RasterizeOptions struct {
	// Thickness is the stroke width for line and freehand annotations.
	// Zero means DefaultThickness.
	Thickness int
	// VisualScale spreads class IDs over the full 0..255 intensity range
	// so the saved mask is inspectable by eye.
	VisualScale bool
}

// RasterizeReport accounts for the annotations of one record.
type RasterizeReport struct {
	Drawn   int
	Skipped []error
}

// Rasterize renders the annotation set onto a fresh single-channel 8-bit
// mask of the record's original size. Background stays 0; annotations are
// painted in stored order, later ones overwriting earlier ones. Annotations
// with an unknown label or a malformed shape are skipped and reported, never
// fatal. The caller owns the returned Mat and must Close it.
func Rasterize(set annotation.Set, table *annotation.ClassTable, opts RasterizeOptions) (gocv.Mat, RasterizeReport, error) {
	var report RasterizeReport

	if !set.OriginalSize.IsValid() {
		return gocv.Mat{}, report, ErrImageSizeUnavailable
	}
	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = DefaultThickness
	}

	mask := gocv.Zeros(set.OriginalSize.Height, set.OriginalSize.Width, gocv.MatTypeCV8UC1)

	for i, a := range set.Annotations {
		if a.Label == "" || a.Type == "" || len(a.Points) == 0 {
			report.Skipped = append(report.Skipped, &SchemaError{Index: i, Reason: "incomplete annotation"})
			continue
		}
		id, ok := table.ID(a.Label)
		if !ok {
			report.Skipped = append(report.Skipped, &UnknownLabelError{Index: i, Label: a.Label})
			continue
		}

		value := uint8(id)
		if opts.VisualScale {
			value = table.VisualValue(id)
		}
		// All channels carry the class value; on a single-channel mask
		// only the first is used.
		col := color.RGBA{R: value, G: value, B: value, A: 255}

		switch a.Type {
		case annotation.TypeRectangle:
			if len(a.Points) != 2 {
				report.Skipped = append(report.Skipped, &SchemaError{Index: i, Reason: "rectangle needs exactly 2 points"})
				continue
			}
			p1, p2 := roundPoint(a.Points[0]), roundPoint(a.Points[1])
			r := image.Rect(min(p1.X, p2.X), min(p1.Y, p2.Y), max(p1.X, p2.X), max(p1.Y, p2.Y))
			gocv.Rectangle(&mask, r, col, -1)
		case annotation.TypeLine:
			if len(a.Points) != 2 {
				report.Skipped = append(report.Skipped, &SchemaError{Index: i, Reason: "line needs exactly 2 points"})
				continue
			}
			gocv.Line(&mask, roundPoint(a.Points[0]), roundPoint(a.Points[1]), col, thickness)
		case annotation.TypeFreehand:
			if len(a.Points) < 2 {
				report.Skipped = append(report.Skipped, &SchemaError{Index: i, Reason: "freehand needs at least 2 points"})
				continue
			}
			pts := make([]image.Point, len(a.Points))
			for j, p := range a.Points {
				pts[j] = roundPoint(p)
			}
			pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
			gocv.Polylines(&mask, pv, false, col, thickness)
			pv.Close()
		default:
			report.Skipped = append(report.Skipped, &SchemaError{Index: i, Reason: "unknown annotation type " + string(a.Type)})
			continue
		}
		report.Drawn++
	}

	return mask, report, nil
}

func roundPoint(p geometry.Point2D) image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}
