package convert

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"masklab/internal/annotation"
	"masklab/pkg/geometry"
)

// minContourArea discards contours below this area as noise.
const minContourArea = 4.0

// ClassStats summarizes the contours recovered for one class.
type ClassStats struct {
	Label      string
	PixelValue uint8
	Contours   int
	MeanArea   float64
	StdDevArea float64
}

// Vectorize recovers freehand annotations from a single-channel 8-bit class
// mask. mapping gives the pixel value of each class to extract; values are
// processed in ascending order so the output is deterministic for a given
// mask and mapping. Only external contours are traced, and contours with an
// area below the noise threshold are discarded. A mask containing none of
// the mapped values yields a set with no annotations.
func Vectorize(mask gocv.Mat, mapping map[uint8]string) (annotation.Set, []ClassStats, error) {
	if mask.Empty() {
		return annotation.Set{}, nil, fmt.Errorf("empty mask")
	}
	if mask.Channels() != 1 || mask.Type() != gocv.MatTypeCV8UC1 {
		return annotation.Set{}, nil, fmt.Errorf("mask must be single-channel 8-bit, got type %v", mask.Type())
	}

	set := annotation.Set{
		OriginalSize: annotation.SizePx{Width: mask.Cols(), Height: mask.Rows()},
	}

	values := make([]int, 0, len(mapping))
	for v := range mapping {
		values = append(values, int(v))
	}
	sort.Ints(values)

	var stats []ClassStats
	binary := gocv.NewMat()
	defer binary.Close()

	for _, v := range values {
		label := mapping[uint8(v)]
		scalar := gocv.NewScalar(float64(v), float64(v), float64(v), float64(v))
		gocv.InRangeWithScalar(mask, scalar, scalar, &binary)

		contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
		var areas []float64
		for i := 0; i < contours.Size(); i++ {
			contour := contours.At(i)
			area := gocv.ContourArea(contour)
			if area < minContourArea {
				continue
			}

			points := make([]geometry.Point2D, contour.Size())
			for j := 0; j < contour.Size(); j++ {
				pt := contour.At(j)
				points[j] = geometry.Point2D{X: float64(pt.X), Y: float64(pt.Y)}
			}
			set.Annotations = append(set.Annotations, annotation.NewFreehand(label, points))
			areas = append(areas, area)
		}
		contours.Close()

		if len(areas) > 0 {
			cs := ClassStats{
				Label:      label,
				PixelValue: uint8(v),
				Contours:   len(areas),
				MeanArea:   stat.Mean(areas, nil),
			}
			if len(areas) > 1 {
				cs.StdDevArea = stat.StdDev(areas, nil)
			}
			stats = append(stats, cs)
		}
	}

	return set, stats, nil
}
