// Package canvas provides the annotation canvas widget: it renders the
// visible crop of the current image stretched to the widget size and routes
// pointer gestures to the drawing tool.
package canvas

import (
	"image"
	"math"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"masklab/internal/annotation"
	"masklab/internal/app"
	"masklab/internal/tool"
	"masklab/internal/viewport"
	"masklab/pkg/geometry"
)

// hitDistance is the view-space pick radius, in pixels, for the select tool.
const hitDistance = 6.0

// AnnotationCanvas displays the current image under the session's view
// transform and turns pointer gestures into annotations.
type AnnotationCanvas struct {
	widget.BaseWidget

	session *app.Session
	raster  *fynecanvas.Raster

	panMode  bool
	panning  bool
	drawing  bool
	selected int

	debouncer *viewport.Debouncer
	lastSize  fyne.Size

	// Callbacks
	onMouseMove  func(view, orig geometry.Point2D, inside bool)
	onZoomChange func(zoom float64)
	onSelect     func(index int)
}

// NewAnnotationCanvas creates a canvas bound to the session.
func NewAnnotationCanvas(session *app.Session) *AnnotationCanvas {
	ac := &AnnotationCanvas{
		session:   session,
		selected:  -1,
		debouncer: viewport.NewDebouncer(viewport.ResizeDebounce),
	}
	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.ExtendBaseWidget(ac)

	session.On(app.EventImageChanged, func(interface{}) {
		ac.selected = -1
		ac.fitCurrentImage()
		fyne.Do(ac.Refresh)
	})
	session.On(app.EventAnnotationsChanged, func(interface{}) {
		if ac.selected >= len(session.Annotations()) {
			ac.selected = -1
		}
		fyne.Do(ac.Refresh)
	})
	return ac
}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ac.raster)
}

// SetPanMode switches between pan-drag and draw-drag behavior.
func (ac *AnnotationCanvas) SetPanMode(pan bool) {
	ac.panMode = pan
	if pan {
		ac.session.Machine().Cancel()
	}
}

// SelectedIndex returns the index of the selected annotation, or -1.
func (ac *AnnotationCanvas) SelectedIndex() int { return ac.selected }

// Select highlights the annotation at index without firing the selection
// callback; used when the selection originates elsewhere in the UI.
func (ac *AnnotationCanvas) Select(index int) {
	if index < 0 || index >= len(ac.session.Annotations()) {
		index = -1
	}
	ac.selected = index
	ac.Refresh()
}

// ClearSelection drops the current selection.
func (ac *AnnotationCanvas) ClearSelection() {
	ac.setSelected(-1)
	ac.Refresh()
}

// OnMouseMove sets a callback reporting the pointer position in view and
// original-image coordinates.
func (ac *AnnotationCanvas) OnMouseMove(fn func(view, orig geometry.Point2D, inside bool)) {
	ac.onMouseMove = fn
}

// OnZoomChange sets a callback for zoom level changes.
func (ac *AnnotationCanvas) OnZoomChange(fn func(zoom float64)) {
	ac.onZoomChange = fn
}

// OnSelect sets a callback for selection changes; index is -1 when the
// selection is cleared.
func (ac *AnnotationCanvas) OnSelect(fn func(index int)) {
	ac.onSelect = fn
}

// ZoomIn zooms in one button step around the canvas center.
func (ac *AnnotationCanvas) ZoomIn() {
	ac.zoomAt(viewport.ZoomButtonFactor, ac.center())
}

// ZoomOut zooms out one button step around the canvas center.
func (ac *AnnotationCanvas) ZoomOut() {
	ac.zoomAt(1/viewport.ZoomButtonFactor, ac.center())
}

// ResetView refits the image to the canvas.
func (ac *AnnotationCanvas) ResetView() {
	ac.fitCurrentImage()
	ac.notifyZoom()
	ac.Refresh()
}

func (ac *AnnotationCanvas) center() geometry.Point2D {
	size := ac.Size()
	return geometry.Point2D{X: float64(size.Width) / 2, Y: float64(size.Height) / 2}
}

func (ac *AnnotationCanvas) zoomAt(factor float64, pivot geometry.Point2D) {
	if ac.session.Transform().AdjustZoom(factor, pivot) {
		ac.notifyZoom()
		ac.Refresh()
	}
}

func (ac *AnnotationCanvas) notifyZoom() {
	if ac.onZoomChange != nil {
		ac.onZoomChange(ac.session.Transform().Zoom())
	}
}

func (ac *AnnotationCanvas) fitCurrentImage() {
	size := ac.Size()
	imgSize := ac.session.CurrentSize()
	ac.session.Transform().FitToCanvas(
		geometry.Size{Width: float64(size.Width), Height: float64(size.Height)},
		geometry.Size{Width: float64(imgSize.Width), Height: float64(imgSize.Height)},
	)
}

// Scrolled zooms around the pointer, one wheel step per event.
func (ac *AnnotationCanvas) Scrolled(ev *fyne.ScrollEvent) {
	factor := viewport.ZoomWheelFactor
	if ev.Scrolled.DY < 0 {
		factor = 1 / viewport.ZoomWheelFactor
	}
	ac.zoomAt(factor, geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)})
}

// Dragged pans the view in pan mode and extends the drawing gesture
// otherwise.
func (ac *AnnotationCanvas) Dragged(ev *fyne.DragEvent) {
	pos := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}

	if ac.panMode {
		ac.panning = true
		ac.session.Transform().Pan(geometry.Point2D{X: float64(ev.Dragged.DX), Y: float64(ev.Dragged.DY)})
		ac.Refresh()
		return
	}

	machine := ac.session.Machine()
	if machine.Kind() == tool.KindSelect {
		return
	}
	orig := ac.session.Transform().ViewToOriginal(pos)
	if !ac.drawing {
		start := geometry.Point2D{
			X: float64(ev.Position.X - ev.Dragged.DX),
			Y: float64(ev.Position.Y - ev.Dragged.DY),
		}
		if !machine.Begin(ac.session.Transform().ViewToOriginal(start)) {
			return
		}
		ac.drawing = true
	}
	machine.Update(orig)
	ac.Refresh()
}

// DragEnd commits the gesture in progress. Degenerate gestures vanish
// silently.
func (ac *AnnotationCanvas) DragEnd() {
	if ac.panning {
		ac.panning = false
		return
	}
	if !ac.drawing {
		return
	}
	ac.drawing = false

	machine := ac.session.Machine()
	preview := machine.Preview()
	if len(preview) == 0 {
		return
	}
	last := preview[len(preview)-1]
	a, err := machine.Finish(last)
	if err != nil {
		ac.Refresh()
		return
	}
	ac.session.AddAnnotation(a)
}

// Tapped selects the annotation under the pointer when the select tool is
// active.
func (ac *AnnotationCanvas) Tapped(ev *fyne.PointEvent) {
	if ac.session.Machine().Kind() != tool.KindSelect || ac.panMode {
		return
	}
	pos := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	ac.setSelected(ac.hitTest(pos))
	ac.Refresh()
}

// TappedSecondary clears the selection.
func (ac *AnnotationCanvas) TappedSecondary(*fyne.PointEvent) {
	ac.ClearSelection()
}

func (ac *AnnotationCanvas) setSelected(index int) {
	ac.selected = index
	if ac.onSelect != nil {
		ac.onSelect(index)
	}
}

// MouseMoved reports the pointer position in original coordinates.
func (ac *AnnotationCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if ac.onMouseMove == nil {
		return
	}
	tr := ac.session.Transform()
	view := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	if !tr.HasImage() {
		ac.onMouseMove(view, geometry.Point2D{}, false)
		return
	}
	orig := tr.ViewToOriginal(view)
	size := ac.session.CurrentSize()
	inside := orig.X >= 0 && orig.Y >= 0 && orig.X < float64(size.Width) && orig.Y < float64(size.Height)
	ac.onMouseMove(view, orig, inside)
}

// MouseIn implements desktop.Hoverable.
func (ac *AnnotationCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (ac *AnnotationCanvas) MouseOut() {
	if ac.onMouseMove != nil {
		ac.onMouseMove(geometry.Point2D{}, geometry.Point2D{}, false)
	}
}

// minInteriorArea is the view-space area, in square pixels, below which a
// freehand loop is too small for interior picking; tiny loops still select
// through the stroke-distance check.
const minInteriorArea = hitDistance * hitDistance

// hitTest returns the index of the topmost annotation within the pick
// radius of the view-space point, or -1. Rectangles and large freehand
// loops also hit on their interior.
func (ac *AnnotationCanvas) hitTest(pos geometry.Point2D) int {
	tr := ac.session.Transform()
	annotations := ac.session.Annotations()

	for i := len(annotations) - 1; i >= 0; i-- {
		a := annotations[i]
		view := make([]geometry.Point2D, len(a.Points))
		for j, p := range a.Points {
			view[j] = origToView(tr, p)
		}

		if a.Type == annotation.TypeRectangle && a.Bounds().Contains(tr.ViewToOriginal(pos)) {
			return i
		}
		if a.Type == annotation.TypeFreehand && len(view) >= 3 &&
			geometry.PolygonArea(view) >= minInteriorArea &&
			geometry.PointInPolygon(pos, view) {
			return i
		}
		if geometry.PointToPolylineDistance(pos, outlinePath(a.Type, view)) <= hitDistance {
			return i
		}
	}
	return -1
}

// outlinePath returns the view-space polyline to hit-test for an
// annotation: the closed outline for rectangles, the open path otherwise.
func outlinePath(t annotation.Type, view []geometry.Point2D) []geometry.Point2D {
	if t == annotation.TypeRectangle && len(view) == 2 {
		p1, p2 := view[0], view[1]
		return []geometry.Point2D{
			p1,
			{X: p2.X, Y: p1.Y},
			p2,
			{X: p1.X, Y: p2.Y},
			p1,
		}
	}
	return view
}

// draw renders the visible crop of the image stretched to the widget size,
// then the annotation overlay.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	fillBackground(output)

	tr := ac.session.Transform()
	img := ac.session.CurrentImage()
	if img == nil {
		return output
	}

	ac.syncCanvasSize(w, h)
	if !tr.HasImage() || tr.CanvasSize().Width <= 1 {
		return output
	}

	crop := tr.CropBox()
	stretchCrop(output, img, crop, w, h)

	ac.drawAnnotations(output)
	ac.drawPreview(output)
	return output
}

// syncCanvasSize keeps the transform's canvas size in step with the widget.
// The first layout fits the image immediately; later resizes are debounced
// so a window drag does not recompute the view on every frame. w and h are
// the raster's device pixels and only detect changes; the transform always
// receives the widget size so it stays in the same device-independent units
// as pointer events.
func (ac *AnnotationCanvas) syncCanvasSize(w, h int) {
	size := fyne.NewSize(float32(w), float32(h))
	if size == ac.lastSize || w <= 1 || h <= 1 {
		return
	}
	first := ac.lastSize.Width <= 1 && ac.lastSize.Height <= 1
	ac.lastSize = size

	tr := ac.session.Transform()
	if first || !tr.HasImage() || tr.CanvasSize().Width <= 1 {
		ac.fitCurrentImage()
		return
	}
	ac.debouncer.Trigger(func() {
		fyne.Do(func() {
			ac.applyResize()
			ac.Refresh()
		})
	})
}

// applyResize recomputes the view for the widget's current size, in
// device-independent units.
func (ac *AnnotationCanvas) applyResize() {
	size := ac.Size()
	ac.session.Transform().OnCanvasResize(
		geometry.Size{Width: float64(size.Width), Height: float64(size.Height)})
}

// stretchCrop maps the crop box of src onto the full output, nearest
// neighbor.
func stretchCrop(output *image.RGBA, src image.Image, crop viewport.CropBox, w, h int) {
	srcBounds := src.Bounds()
	cw, ch := crop.Width(), crop.Height()
	if cw <= 0 || ch <= 0 {
		return
	}

	for y := 0; y < h; y++ {
		srcY := crop.Y1 + y*ch/h
		if srcY >= crop.Y2 {
			srcY = crop.Y2 - 1
		}
		for x := 0; x < w; x++ {
			srcX := crop.X1 + x*cw/w
			if srcX >= crop.X2 {
				srcX = crop.X2 - 1
			}
			output.Set(x, y, src.At(srcBounds.Min.X+srcX, srcBounds.Min.Y+srcY))
		}
	}
}

func fillBackground(output *image.RGBA) {
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = 0x20
		output.Pix[i+1] = 0x20
		output.Pix[i+2] = 0x20
		output.Pix[i+3] = 0xff
	}
}

// viewPointInt converts a view-space point to integer pixel coordinates.
func viewPointInt(p geometry.Point2D) (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}
