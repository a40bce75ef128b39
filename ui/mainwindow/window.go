// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"masklab/internal/annotation"
	"masklab/internal/app"
	"masklab/internal/version"
	"masklab/pkg/geometry"
	"masklab/ui/canvas"
	"masklab/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const prefKeyLastDir = "lastFolder"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	canvas  *canvas.AnnotationCanvas
	side    *panels.SidePanel

	imageLabel *widget.Label
	jumpEntry  *widget.Entry
	zoomLabel  *widget.Label
	statusBar  *widget.Label
}

// New creates a new main window bound to the session.
func New(fyneApp fyne.App, session *app.Session) *MainWindow {
	win := fyneApp.NewWindow("MaskLab")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupCloseIntercept()

	win.Resize(fyne.NewSize(1200, 800))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewAnnotationCanvas(mw.session)
	mw.statusBar = widget.NewLabel("Open an image folder to begin")
	mw.zoomLabel = widget.NewLabel("100%")
	mw.imageLabel = widget.NewLabel("- / -")

	mw.canvas.OnMouseMove(func(view, orig geometry.Point2D, inside bool) {
		if !inside {
			mw.updateStatus(mw.baseStatus())
			return
		}
		mw.updateStatus(fmt.Sprintf("%s   view (%d, %d)   image (%d, %d)",
			mw.baseStatus(), int(view.X), int(view.Y), int(orig.X), int(orig.Y)))
	})
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})

	mw.side = panels.NewSidePanel(mw.session, mw.canvas, mw.app.Preferences())
	mw.side.SetWindow(mw.Window)
	mw.side.OnStatus = mw.updateStatus

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(toolbar, nil, nil, nil, mw.canvas)
	split := container.NewHSplit(mw.side.Container(), canvasArea)
	split.SetOffset(0.22)

	content := container.NewBorder(nil, container.NewPadded(mw.statusBar), nil, nil, split)
	mw.SetContent(content)
}

// createToolbar builds the navigation and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	openBtn := widget.NewButton("Open Folder...", mw.onOpenFolder)
	prevBtn := widget.NewButton("<", func() { mw.reportErr(mw.session.PrevImage()) })
	nextBtn := widget.NewButton(">", func() { mw.reportErr(mw.session.NextImage()) })

	mw.jumpEntry = widget.NewEntry()
	mw.jumpEntry.SetPlaceHolder("#")
	mw.jumpEntry.OnSubmitted = func(text string) { mw.onJump(text) }

	saveBtn := widget.NewButton("Save", mw.onSave)

	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	resetBtn := widget.NewButton("Reset View", mw.canvas.ResetView)

	return container.NewHBox(
		openBtn,
		widget.NewSeparator(),
		prevBtn, mw.imageLabel, nextBtn, mw.jumpEntry,
		widget.NewSeparator(),
		saveBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"), zoomOutBtn, mw.zoomLabel, zoomInBtn, resetBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Folder...", mw.onOpenFolder),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Annotations", mw.onSave),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", mw.requestQuit),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selected", mw.side.DeleteSelected),
		fyne.NewMenuItem("Clear Image", mw.side.ClearImage),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Reset View", mw.canvas.ResetView),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventImageChanged, func(interface{}) {
		fyne.Do(func() {
			mw.imageLabel.SetText(fmt.Sprintf("%d / %d", mw.session.CurrentIndex()+1, mw.session.ImageCount()))
			mw.updateStatus(mw.baseStatus())
			mw.updateTitle()
		})
	})
	mw.session.On(app.EventDirtyChanged, func(interface{}) {
		fyne.Do(mw.updateTitle)
	})
	mw.session.On(app.EventSaved, func(data interface{}) {
		if res, ok := data.(annotation.SaveResult); ok {
			fyne.Do(func() {
				mw.updateStatus(fmt.Sprintf("Saved %d record(s), removed %d, %d failed",
					res.Saved, res.Removed, res.Failed))
			})
		}
	})
}

// setupCloseIntercept asks about unsaved changes before quitting.
func (mw *MainWindow) setupCloseIntercept() {
	mw.SetCloseIntercept(mw.requestQuit)
}

func (mw *MainWindow) requestQuit() {
	if !mw.session.Dirty() {
		mw.app.Quit()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"There are unsaved annotations. Save before closing?",
		func(save bool) {
			if save {
				if _, err := mw.session.Save(); err != nil {
					dialog.ShowError(err, mw.Window)
					return
				}
			}
			mw.app.Quit()
		}, mw.Window)
}

func (mw *MainWindow) baseStatus() string {
	name := mw.session.CurrentName()
	if name == "" {
		return "No image"
	}
	size := mw.session.CurrentSize()
	return fmt.Sprintf("%s   %dx%d", name, size.Width, size.Height)
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle() {
	title := "MaskLab"
	if folder := mw.session.Folder(); folder != "" {
		title += " - " + filepath.Base(folder)
	}
	if mw.session.Dirty() {
		title += " *"
	}
	mw.SetTitle(title)
}

func (mw *MainWindow) reportErr(err error) {
	if err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

// Control handlers

func (mw *MainWindow) onOpenFolder() {
	open := func() {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			path := uri.Path()
			if err := mw.session.OpenFolder(path); err != nil {
				dialog.ShowError(err, mw.Window)
				return
			}
			mw.app.Preferences().SetString(prefKeyLastDir, path)
		}, mw.Window)
		if loc := mw.getLastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	}

	if mw.session.Dirty() {
		dialog.ShowConfirm("Unsaved Changes",
			"Opening a new folder discards unsaved annotations. Continue?",
			func(ok bool) {
				if ok {
					open()
				}
			}, mw.Window)
		return
	}
	open()
}

func (mw *MainWindow) onJump(text string) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		mw.updateStatus("Jump: enter an image number")
		return
	}
	mw.reportErr(mw.session.ShowImage(n - 1))
	mw.jumpEntry.SetText("")
}

func (mw *MainWindow) onSave() {
	res, err := mw.session.Save()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if res.Failed > 0 {
		dialog.ShowInformation("Save Incomplete",
			fmt.Sprintf("%d record(s) could not be written; annotations remain unsaved.", res.Failed),
			mw.Window)
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About MaskLab",
		fmt.Sprintf("MaskLab v%s\n\n"+
			"An image annotation tool for segmentation datasets.\n\n"+
			"Draw rectangles, lines, and freehand regions over images,\n"+
			"then convert annotations to class masks and back.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// getLastDir returns the last used folder as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}
