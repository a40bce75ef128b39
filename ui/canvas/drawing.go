package canvas

import (
	"image"
	"image/color"

	"masklab/internal/annotation"
	"masklab/internal/tool"
	"masklab/internal/viewport"
	"masklab/pkg/colorutil"
	"masklab/pkg/geometry"
)

const outlineThickness = 2

// classPalette assigns overlay colors to the default class IDs. Custom
// classes past the palette get hues spread by the golden angle so that
// neighbouring IDs stay visually distinct.
var classPalette = []color.RGBA{
	{0xe6, 0x19, 0x4b, 0xff}, // red
	{0x3c, 0xb4, 0x4b, 0xff}, // green
	{0x43, 0x63, 0xd8, 0xff}, // blue
	{0xff, 0xe1, 0x19, 0xff}, // yellow
	{0xf5, 0x82, 0x31, 0xff}, // orange
	{0x91, 0x1e, 0xb4, 0xff}, // purple
	{0x46, 0xf0, 0xf0, 0xff}, // cyan
	{0xf0, 0x32, 0xe6, 0xff}, // magenta
}

var (
	selectedColor = colorutil.White
	previewColor  = color.RGBA{0x00, 0xff, 0x90, 0xff}
)

func classColor(id int) color.RGBA {
	if id <= 0 {
		return classPalette[0]
	}
	if id <= len(classPalette) {
		return classPalette[id-1]
	}
	return colorutil.HSVToRGB(float64(id-len(classPalette))*137.5, 0.75, 0.95)
}

// origToView maps an original-image point to view coordinates through the
// crop box without a visibility check; off-screen points map outside the
// widget and are clipped pixel by pixel while drawing.
func origToView(tr *viewport.Transform, p geometry.Point2D) geometry.Point2D {
	crop := tr.CropBox()
	canvas := tr.CanvasSize()
	cw, ch := float64(crop.Width()), float64(crop.Height())
	if cw <= 0 || ch <= 0 {
		return p
	}
	return geometry.Point2D{
		X: (p.X - float64(crop.X1)) / cw * canvas.Width,
		Y: (p.Y - float64(crop.Y1)) / ch * canvas.Height,
	}
}

// drawAnnotations renders the stored annotations of the current image.
func (ac *AnnotationCanvas) drawAnnotations(output *image.RGBA) {
	tr := ac.session.Transform()
	table := ac.session.ClassTable()

	for i, a := range ac.session.Annotations() {
		col := classPalette[0]
		if id, ok := table.ID(a.Label); ok {
			col = classColor(id)
		}
		if i == ac.selected {
			col = selectedColor
		}
		ac.drawShape(output, tr, a.Type, a.Points, col)
	}
}

// drawPreview renders the gesture in progress.
func (ac *AnnotationCanvas) drawPreview(output *image.RGBA) {
	machine := ac.session.Machine()
	points := machine.Preview()
	if len(points) == 0 {
		return
	}
	var t annotation.Type
	switch machine.Kind() {
	case tool.KindRectangle:
		t = annotation.TypeRectangle
	case tool.KindLine:
		t = annotation.TypeLine
	default:
		t = annotation.TypeFreehand
	}
	ac.drawShape(output, ac.session.Transform(), t, points, previewColor)
}

func (ac *AnnotationCanvas) drawShape(output *image.RGBA, tr *viewport.Transform, t annotation.Type, points []geometry.Point2D, col color.RGBA) {
	view := make([]geometry.Point2D, len(points))
	for i, p := range points {
		view[i] = origToView(tr, p)
	}

	switch t {
	case annotation.TypeRectangle:
		if len(view) == 2 {
			ac.drawRectOutline(output, view[0], view[1], col)
		}
	case annotation.TypeLine:
		if len(view) == 2 {
			ac.drawSegment(output, view[0], view[1], col)
		}
	case annotation.TypeFreehand:
		if len(view) == 1 {
			ac.drawSegment(output, view[0], view[0], col)
			return
		}
		for i := 1; i < len(view); i++ {
			ac.drawSegment(output, view[i-1], view[i], col)
		}
	}
}

func (ac *AnnotationCanvas) drawRectOutline(output *image.RGBA, p1, p2 geometry.Point2D, col color.RGBA) {
	a := geometry.Point2D{X: p2.X, Y: p1.Y}
	b := geometry.Point2D{X: p1.X, Y: p2.Y}
	ac.drawSegment(output, p1, a, col)
	ac.drawSegment(output, a, p2, col)
	ac.drawSegment(output, p2, b, col)
	ac.drawSegment(output, b, p1, col)
}

func (ac *AnnotationCanvas) drawSegment(output *image.RGBA, from, to geometry.Point2D, col color.RGBA) {
	x1, y1 := viewPointInt(from)
	x2, y2 := viewPointInt(to)
	drawLine(output, x1, y1, x2, y2, col, outlineThickness)
}

// drawLine draws a thick line with Bresenham stepping, clipped to the
// output bounds.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
