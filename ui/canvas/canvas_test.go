package canvas

import (
	"math"
	"testing"

	"fyne.io/fyne/v2"

	"masklab/internal/annotation"
	"masklab/internal/app"
	"masklab/pkg/geometry"
)

// newTestCanvas builds a canvas whose transform shows a 200x150 image
// fitted to a 400x300 widget, effective scale 2.
func newTestCanvas(t *testing.T) (*AnnotationCanvas, *app.Session) {
	t.Helper()
	session := app.NewSession()
	ac := NewAnnotationCanvas(session)
	ac.Resize(fyne.NewSize(400, 300))
	if !session.Transform().FitToCanvas(
		geometry.Size{Width: 400, Height: 300},
		geometry.Size{Width: 200, Height: 150},
	) {
		t.Fatal("FitToCanvas failed")
	}
	return ac, session
}

func TestApplyResizeUsesWidgetUnits(t *testing.T) {
	ac, session := newTestCanvas(t)
	tr := session.Transform()

	// The raster generator runs in device pixels (e.g. 800x600 for this
	// widget at display scale 2), but the view must be recomputed from the
	// widget size so pointer positions, which arrive in device-independent
	// units, keep mapping onto the image.
	ac.Resize(fyne.NewSize(500, 400))
	ac.applyResize()

	if got := tr.CanvasSize(); got.Width != 500 || got.Height != 400 {
		t.Fatalf("canvas size = %+v, want 500x400", got)
	}

	corner := tr.ViewToOriginal(geometry.Point2D{X: 500, Y: 400})
	if math.Abs(corner.X-200) > 1 || math.Abs(corner.Y-150) > 1 {
		t.Errorf("far corner maps to %+v, want the image corner (200, 150)", corner)
	}
}

func TestHitTestFreehandInterior(t *testing.T) {
	ac, session := newTestCanvas(t)

	loop := annotation.NewFreehand("object", []geometry.Point2D{
		{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 35, Y: 60},
	})
	if !session.Store().Append(session.CurrentName(), annotation.SizePx{Width: 200, Height: 150}, loop) {
		t.Fatal("Append failed")
	}

	// A point well inside the loop and far from every stroke segment.
	if got := ac.hitTest(geometry.Point2D{X: 70, Y: 60}); got != 0 {
		t.Fatalf("interior hit = %d, want 0", got)
	}
	// Outside the loop and outside the stroke pick radius.
	if got := ac.hitTest(geometry.Point2D{X: 160, Y: 100}); got != -1 {
		t.Fatalf("miss = %d, want -1", got)
	}
}

func TestHitTestTinyLoopStillHitsOnStroke(t *testing.T) {
	ac, session := newTestCanvas(t)

	// View-space area 4 px², below the interior-picking threshold.
	tiny := annotation.NewFreehand("object", []geometry.Point2D{
		{X: 50, Y: 50}, {X: 51, Y: 50}, {X: 50.5, Y: 51},
	})
	if !session.Store().Append(session.CurrentName(), annotation.SizePx{Width: 200, Height: 150}, tiny) {
		t.Fatal("Append failed")
	}

	// On the stroke (view space ~(101, 100)).
	if got := ac.hitTest(geometry.Point2D{X: 101, Y: 100}); got != 0 {
		t.Fatalf("stroke hit = %d, want 0", got)
	}
}
