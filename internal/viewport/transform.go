// Package viewport maintains the mapping between original-image pixel
// coordinates and view (canvas) pixel coordinates under zoom, pan, and
// canvas resize.
//
// Rendering works in two steps: the visible rectangle of original-image
// space (the crop box) is rounded to integer pixel bounds, then stretched to
// fill the canvas. Both coordinate conversions are derived from that same
// rounded crop box, which makes them mutually consistent up to one pixel of
// rounding error; they are not exact algebraic inverses.
package viewport

import (
	"math"

	"masklab/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the user zoom level.
	MinZoom = 0.02
	MaxZoom = 100.0

	// ZoomButtonFactor is the zoom step for the +/- buttons.
	ZoomButtonFactor = 1.20
	// ZoomWheelFactor is the zoom step per mouse wheel notch.
	ZoomWheelFactor = 1.04

	// InitialMagnification scales the fit-to-canvas base scale.
	InitialMagnification = 1.0

	// zoomEpsilon suppresses no-op zoom changes from high-frequency wheel
	// events once the clamp bound is reached.
	zoomEpsilon = 1e-5

	// scaleFloor and fallbackScale guard divisions by a collapsed
	// effective scale.
	scaleFloor    = 1e-9
	fallbackScale = 0.01
)

// CropBox is the rectangle of original-image space currently visible,
// rounded to integer pixel bounds and clamped into the image extent.
// X2/Y2 are exclusive.
type CropBox struct {
	X1, Y1, X2, Y2 int
}

// Width returns the crop width in original pixels.
func (c CropBox) Width() int { return c.X2 - c.X1 }

// Height returns the crop height in original pixels.
func (c CropBox) Height() int { return c.Y2 - c.Y1 }

// Transform holds the view state for one image and derives all coordinate
// conversions from it. The zero value has no image; call FitToCanvas after
// loading an image.
type Transform struct {
	imageSize  geometry.Size
	canvasSize geometry.Size

	baseScale float64
	zoom      float64
	offset    geometry.Point2D

	crop    CropBox
	hasCrop bool
}

// New creates a transform with no image loaded.
func New() *Transform {
	return &Transform{baseScale: 1, zoom: 1}
}

// HasImage reports whether an image is loaded.
func (t *Transform) HasImage() bool { return t.imageSize.IsValid() }

// Zoom returns the current zoom level.
func (t *Transform) Zoom() float64 { return t.zoom }

// Offset returns the current view offset.
func (t *Transform) Offset() geometry.Point2D { return t.offset }

// CanvasSize returns the canvas size last given to the transform.
func (t *Transform) CanvasSize() geometry.Size { return t.canvasSize }

// ImageSize returns the loaded image size.
func (t *Transform) ImageSize() geometry.Size { return t.imageSize }

// EffectiveScale returns base_scale * zoom_level, substituting a small
// positive floor if the product has collapsed toward zero.
func (t *Transform) EffectiveScale() float64 {
	eff := t.baseScale * t.zoom
	if math.Abs(eff) < scaleFloor {
		return fallbackScale
	}
	return eff
}

// FitToCanvas recomputes the base scale so the image fits the canvas,
// resets the zoom level to 1, and centers the image. It is called on image
// load and on explicit "reset view". Returns false when the canvas has no
// layout yet (0 or 1 px) or the image size is invalid.
func (t *Transform) FitToCanvas(canvas, image geometry.Size) bool {
	if canvas.Width <= 1 || canvas.Height <= 1 || !image.IsValid() {
		return false
	}
	t.imageSize = image
	t.canvasSize = canvas
	t.zoom = 1.0
	t.baseScale = math.Min(canvas.Width/image.Width, canvas.Height/image.Height) * InitialMagnification

	eff := t.EffectiveScale()
	t.offset = geometry.Point2D{
		X: (canvas.Width - image.Width*eff) / 2,
		Y: (canvas.Height - image.Height*eff) / 2,
	}
	t.refreshCrop()
	return true
}

// AdjustZoom multiplies the zoom level by factor, clamped to
// [MinZoom, MaxZoom]. The original-space point under pivot (a view-space
// point) stays under the same view point after the change. A clamped change
// smaller than the epsilon is a no-op; returns whether the zoom changed.
func (t *Transform) AdjustZoom(factor float64, pivot geometry.Point2D) bool {
	if !t.HasImage() || t.canvasSize.Width <= 1 || t.canvasSize.Height <= 1 {
		return false
	}

	eff := t.EffectiveScale()
	origAtPivot := geometry.Point2D{
		X: (pivot.X - t.offset.X) / eff,
		Y: (pivot.Y - t.offset.Y) / eff,
	}

	newZoom := math.Max(MinZoom, math.Min(t.zoom*factor, MaxZoom))
	if math.Abs(newZoom-t.zoom) < zoomEpsilon {
		return false
	}
	t.zoom = newZoom

	eff = t.EffectiveScale()
	t.offset = geometry.Point2D{
		X: pivot.X - origAtPivot.X*eff,
		Y: pivot.Y - origAtPivot.Y*eff,
	}
	t.refreshCrop()
	return true
}

// Pan adds delta to the view offset and clamps each axis independently so
// the image cannot be dragged to expose blank space beyond its own edge.
// When the scaled image is smaller than the canvas along an axis, both clamp
// bounds coincide at the centering value and panning that axis has no
// visible effect.
func (t *Transform) Pan(delta geometry.Point2D) {
	if !t.HasImage() {
		return
	}
	t.SetOffset(geometry.Point2D{X: t.offset.X + delta.X, Y: t.offset.Y + delta.Y})
}

// SetOffset sets the view offset directly, subject to the pan clamp.
func (t *Transform) SetOffset(offset geometry.Point2D) {
	eff := t.EffectiveScale()
	fullW := t.imageSize.Width * eff
	fullH := t.imageSize.Height * eff

	t.offset = geometry.Point2D{
		X: clamp(offset.X, t.canvasSize.Width-fullW),
		Y: clamp(offset.Y, t.canvasSize.Height-fullH),
	}
	t.refreshCrop()
}

// clamp restricts v to the interval between 0 and slack, whichever order
// they fall in.
func clamp(v, slack float64) float64 {
	lo, hi := math.Min(0, slack), math.Max(0, slack)
	return math.Max(lo, math.Min(hi, v))
}

// OnCanvasResize recomputes the base scale for a new canvas size while
// keeping the original-space point at the canvas center centered. A canvas
// of 0 or 1 px means "not yet laid out" and is ignored.
func (t *Transform) OnCanvasResize(newCanvas geometry.Size) {
	if newCanvas.Width <= 1 || newCanvas.Height <= 1 || !t.HasImage() {
		return
	}
	if t.canvasSize.Width <= 1 || t.canvasSize.Height <= 1 {
		t.FitToCanvas(newCanvas, t.imageSize)
		return
	}

	eff := t.EffectiveScale()
	origCenter := geometry.Point2D{
		X: (t.canvasSize.Width/2 - t.offset.X) / eff,
		Y: (t.canvasSize.Height/2 - t.offset.Y) / eff,
	}

	t.canvasSize = newCanvas
	t.baseScale = math.Min(newCanvas.Width/t.imageSize.Width, newCanvas.Height/t.imageSize.Height) * InitialMagnification

	eff = t.EffectiveScale()
	t.offset = geometry.Point2D{
		X: newCanvas.Width/2 - origCenter.X*eff,
		Y: newCanvas.Height/2 - origCenter.Y*eff,
	}
	t.refreshCrop()
}

// CropBox returns the rounded crop box currently in effect.
func (t *Transform) CropBox() CropBox {
	if !t.hasCrop {
		t.refreshCrop()
	}
	return t.crop
}

// refreshCrop recomputes the rounded crop box from the current view state.
// Both conversion directions use this box until the next state change.
func (t *Transform) refreshCrop() {
	if !t.HasImage() {
		t.hasCrop = false
		return
	}

	eff := t.EffectiveScale()
	imgW := int(t.imageSize.Width)
	imgH := int(t.imageSize.Height)

	x1 := int(math.Round(-t.offset.X / eff))
	y1 := int(math.Round(-t.offset.Y / eff))
	w := max(1, int(math.Round(t.canvasSize.Width/eff)))
	h := max(1, int(math.Round(t.canvasSize.Height/eff)))
	x2 := x1 + w
	y2 := y1 + h

	x1 = clampInt(x1, 0, imgW)
	y1 = clampInt(y1, 0, imgH)
	x2 = clampInt(x2, 0, imgW)
	y2 = clampInt(y2, 0, imgH)

	// Degenerate guard: expand a collapsed box to 1 px and re-clamp.
	if x1 >= x2 {
		x2 = min(imgW, x1+1)
		x1 = max(0, x2-1)
	}
	if y1 >= y2 {
		y2 = min(imgH, y1+1)
		y1 = max(0, y2-1)
	}

	t.crop = CropBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
	t.hasCrop = true
}

// ViewToOriginal maps a view-space point to original-image coordinates
// through the current crop box.
func (t *Transform) ViewToOriginal(p geometry.Point2D) geometry.Point2D {
	if !t.HasImage() {
		return p
	}
	crop := t.CropBox()
	cw := float64(crop.Width())
	ch := float64(crop.Height())
	if t.canvasSize.Width <= 0 || t.canvasSize.Height <= 0 || cw <= 0 || ch <= 0 {
		eff := t.EffectiveScale()
		return geometry.Point2D{X: (p.X - t.offset.X) / eff, Y: (p.Y - t.offset.Y) / eff}
	}

	return geometry.Point2D{
		X: float64(crop.X1) + p.X/t.canvasSize.Width*cw,
		Y: float64(crop.Y1) + p.Y/t.canvasSize.Height*ch,
	}
}

// OriginalToView maps an original-image point to view coordinates through
// the current crop box. The second result is false when the point lies
// outside the visible crop.
func (t *Transform) OriginalToView(p geometry.Point2D) (geometry.Point2D, bool) {
	if !t.HasImage() {
		return geometry.Point2D{}, false
	}
	crop := t.CropBox()
	cw := float64(crop.Width())
	ch := float64(crop.Height())
	if cw <= 0 || ch <= 0 || t.canvasSize.Width <= 0 || t.canvasSize.Height <= 0 {
		return geometry.Point2D{}, false
	}

	const eps = 1e-9
	if p.X < float64(crop.X1)-eps || p.X > float64(crop.X2)+eps ||
		p.Y < float64(crop.Y1)-eps || p.Y > float64(crop.Y2)+eps {
		return geometry.Point2D{}, false
	}

	return geometry.Point2D{
		X: (p.X - float64(crop.X1)) / cw * t.canvasSize.Width,
		Y: (p.Y - float64(crop.Y1)) / ch * t.canvasSize.Height,
	}, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
