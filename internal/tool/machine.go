// Package tool owns the state of an in-progress drawing gesture. The canvas
// feeds it press/move/release events in original-image coordinates and it
// produces a validated annotation on release, or an error when the gesture
// was degenerate.
package tool

import (
	"errors"
	"fmt"

	"masklab/internal/annotation"
	"masklab/pkg/geometry"
)

// Kind selects the active tool.
type Kind string

const (
	KindSelect    Kind = "select"
	KindRectangle Kind = "rectangle"
	KindLine      Kind = "line"
	KindFreehand  Kind = "freehand"
)

var (
	// ErrNotDrawing is returned by Finish when no gesture is in progress.
	ErrNotDrawing = errors.New("no drawing in progress")
	// ErrDegenerate marks a gesture too small to keep. The caller discards
	// it silently.
	ErrDegenerate = errors.New("degenerate gesture")
)

// Machine is the drawing state machine. It is either idle or tracking one
// gesture; switching tools or labels cancels any gesture in progress.
type Machine struct {
	kind    Kind
	label   string
	drawing bool
	points  []geometry.Point2D
}

// NewMachine creates an idle machine with the rectangle tool selected.
func NewMachine() *Machine {
	return &Machine{kind: KindRectangle}
}

// Kind returns the active tool.
func (m *Machine) Kind() Kind { return m.kind }

// Label returns the class label applied to finished gestures.
func (m *Machine) Label() string { return m.label }

// Drawing reports whether a gesture is in progress.
func (m *Machine) Drawing() bool { return m.drawing }

// SetKind switches the active tool, cancelling any gesture in progress.
func (m *Machine) SetKind(k Kind) {
	if k != m.kind {
		m.Cancel()
	}
	m.kind = k
}

// SetLabel sets the class label for subsequent gestures, cancelling any
// gesture in progress.
func (m *Machine) SetLabel(label string) {
	if label != m.label {
		m.Cancel()
	}
	m.label = label
}

// Begin starts a gesture at p (original-image coordinates). It reports
// whether a gesture actually started; the select tool and an empty label
// never draw.
func (m *Machine) Begin(p geometry.Point2D) bool {
	if m.kind == KindSelect || m.label == "" {
		return false
	}
	m.drawing = true
	m.points = m.points[:0]
	m.points = append(m.points, p)
	return true
}

// Update extends the gesture with the pointer position p. Rectangle and
// line gestures track only their anchor and the latest point; freehand
// gestures accumulate every distinct point.
func (m *Machine) Update(p geometry.Point2D) {
	if !m.drawing {
		return
	}
	switch m.kind {
	case KindFreehand:
		if last := m.points[len(m.points)-1]; last != p {
			m.points = append(m.points, p)
		}
	default:
		if len(m.points) == 1 {
			m.points = append(m.points, p)
		} else {
			m.points[len(m.points)-1] = p
		}
	}
}

// Preview returns the points of the gesture in progress for overlay
// rendering. The slice is owned by the machine; do not retain it.
func (m *Machine) Preview() []geometry.Point2D {
	if !m.drawing {
		return nil
	}
	return m.points
}

// Finish ends the gesture at p and returns the resulting annotation.
// Degenerate gestures return an error wrapping ErrDegenerate and leave
// nothing behind.
func (m *Machine) Finish(p geometry.Point2D) (annotation.Annotation, error) {
	if !m.drawing {
		return annotation.Annotation{}, ErrNotDrawing
	}
	m.Update(p)
	points := m.points
	m.drawing = false
	m.points = nil

	anchor := points[0]
	switch m.kind {
	case KindRectangle:
		if dx, dy := abs(p.X-anchor.X), abs(p.Y-anchor.Y); dx < annotation.MinExtent || dy < annotation.MinExtent {
			return annotation.Annotation{}, fmt.Errorf("rectangle %vx%v: %w", dx, dy, ErrDegenerate)
		}
		return annotation.NewRectangle(m.label, anchor, p), nil
	case KindLine:
		if anchor.Distance(p) < annotation.MinExtent {
			return annotation.Annotation{}, fmt.Errorf("line of length %v: %w", anchor.Distance(p), ErrDegenerate)
		}
		return annotation.NewLine(m.label, anchor, p), nil
	case KindFreehand:
		if len(points) < 2 {
			return annotation.Annotation{}, fmt.Errorf("freehand with %d point(s): %w", len(points), ErrDegenerate)
		}
		return annotation.NewFreehand(m.label, points), nil
	}
	return annotation.Annotation{}, fmt.Errorf("tool %q cannot draw", m.kind)
}

// Cancel abandons any gesture in progress.
func (m *Machine) Cancel() {
	m.drawing = false
	m.points = nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
