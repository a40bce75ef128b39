// Package panels provides UI panels for the application.
package panels

import (
	"fmt"

	"masklab/internal/app"
	"masklab/internal/tool"
	"masklab/ui/canvas"
	"masklab/ui/dialogs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyTool  = "lastTool"
	prefKeyClass = "lastClass"
)

var toolNames = []string{"Select", "Rectangle", "Line", "Freehand", "Pan"}

// SidePanel holds the tool picker, class picker, and annotation list.
type SidePanel struct {
	session *app.Session
	canvas  *canvas.AnnotationCanvas
	prefs   fyne.Preferences
	window  fyne.Window

	toolRadio   *widget.RadioGroup
	classSelect *widget.Select
	annList     *widget.List
	container   fyne.CanvasObject

	// OnStatus, when set, receives short status messages for the status bar.
	OnStatus func(text string)
}

// NewSidePanel creates the side panel bound to the session and canvas.
func NewSidePanel(session *app.Session, cvs *canvas.AnnotationCanvas, prefs fyne.Preferences) *SidePanel {
	sp := &SidePanel{
		session: session,
		canvas:  cvs,
		prefs:   prefs,
	}

	sp.buildWidgets()
	sp.setupEventHandlers()

	cvs.OnSelect(func(index int) {
		if index >= 0 {
			sp.annList.Select(index)
		} else {
			sp.annList.UnselectAll()
		}
	})

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.window = w
}

func (sp *SidePanel) buildWidgets() {
	sp.toolRadio = widget.NewRadioGroup(toolNames, sp.onToolChanged)
	sp.toolRadio.Required = true
	if last := sp.prefs.String(prefKeyTool); contains(toolNames, last) {
		sp.toolRadio.SetSelected(last)
	} else {
		sp.toolRadio.SetSelected("Rectangle")
	}

	sp.classSelect = widget.NewSelect(sp.session.Classes(), sp.onClassChanged)
	if last := sp.prefs.String(prefKeyClass); contains(sp.session.Classes(), last) {
		sp.classSelect.SetSelected(last)
	} else if classes := sp.session.Classes(); len(classes) > 0 {
		sp.classSelect.SetSelected(classes[0])
	}

	addClassBtn := widget.NewButton("Add Class...", sp.onAddClass)

	sp.annList = widget.NewList(
		func() int { return len(sp.session.Annotations()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			anns := sp.session.Annotations()
			if i < 0 || i >= len(anns) {
				return
			}
			a := anns[i]
			obj.(*widget.Label).SetText(fmt.Sprintf("%d: %s (%s)", i+1, a.Label, a.Type))
		},
	)
	sp.annList.OnSelected = func(id widget.ListItemID) {
		sp.canvas.Select(id)
	}
	sp.annList.OnUnselected = func(widget.ListItemID) {
		sp.canvas.Select(-1)
	}

	deleteBtn := widget.NewButton("Delete Selected", sp.DeleteSelected)
	clearBtn := widget.NewButton("Clear Image", sp.ClearImage)

	top := container.NewVBox(
		widget.NewLabelWithStyle("Tool", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		sp.toolRadio,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Class", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		sp.classSelect,
		addClassBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Annotations", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)
	bottom := container.NewVBox(deleteBtn, clearBtn)

	sp.container = container.NewBorder(top, bottom, nil, nil, sp.annList)
}

func (sp *SidePanel) setupEventHandlers() {
	sp.session.On(app.EventImageChanged, func(interface{}) {
		fyne.Do(func() {
			sp.annList.UnselectAll()
			sp.annList.Refresh()
		})
	})
	sp.session.On(app.EventAnnotationsChanged, func(interface{}) {
		fyne.Do(sp.annList.Refresh)
	})
	sp.session.On(app.EventClassesChanged, func(interface{}) {
		fyne.Do(func() {
			selected := sp.classSelect.Selected
			sp.classSelect.Options = sp.session.Classes()
			sp.classSelect.SetSelected(selected)
			sp.classSelect.Refresh()
		})
	})
}

func (sp *SidePanel) onToolChanged(name string) {
	sp.prefs.SetString(prefKeyTool, name)
	sp.canvas.SetPanMode(name == "Pan")

	switch name {
	case "Select":
		sp.session.Machine().SetKind(tool.KindSelect)
	case "Line":
		sp.session.Machine().SetKind(tool.KindLine)
	case "Freehand":
		sp.session.Machine().SetKind(tool.KindFreehand)
	default:
		sp.session.Machine().SetKind(tool.KindRectangle)
	}
	if name != "Select" {
		sp.canvas.ClearSelection()
	}
}

func (sp *SidePanel) onClassChanged(label string) {
	sp.session.Machine().SetLabel(label)
	sp.prefs.SetString(prefKeyClass, label)
}

func (sp *SidePanel) onAddClass() {
	dialogs.ShowAddClass(sp.session, sp.window, func(label string) {
		sp.classSelect.SetSelected(label)
	})
}

// DeleteSelected removes the annotation selected in the list, if any.
func (sp *SidePanel) DeleteSelected() {
	index := sp.canvas.SelectedIndex()
	if index < 0 {
		sp.status("Nothing selected")
		return
	}
	sp.session.DeleteAnnotation(index)
	sp.canvas.ClearSelection()
}

// ClearImage removes all annotations from the current image after confirmation.
func (sp *SidePanel) ClearImage() {
	if len(sp.session.Annotations()) == 0 {
		return
	}
	dialog.ShowConfirm("Clear Image",
		"Remove all annotations from the current image?",
		func(ok bool) {
			if ok {
				sp.session.ClearAnnotations()
				sp.canvas.ClearSelection()
			}
		}, sp.window)
}

func (sp *SidePanel) status(text string) {
	if sp.OnStatus != nil {
		sp.OnStatus(text)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
