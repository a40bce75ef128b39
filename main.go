// Package main provides the entry point for the MaskLab application.
package main

import (
	"log"
	"os"
	"time"

	"masklab/internal/app"
	"masklab/internal/version"
	"masklab/ui/mainwindow"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const (
	appTitle = "MaskLab"
	appID    = "io.masklab.app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.MaskLabTheme{})

	session := app.NewSession()
	win := mainwindow.New(fyneApp, session)

	// An image folder may be given on the command line.
	if len(os.Args) > 1 {
		if err := session.OpenFolder(os.Args[1]); err != nil {
			log.Printf("Failed to open folder %s: %v", os.Args[1], err)
		}
	}

	setupHotReload(win)

	win.ShowAndRun()
}

// setupHotReload configures automatic restart detection when the binary is recompiled.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.Baseline().Format("15:04:05"))

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		fyne.Do(func() {
			dialog.ShowConfirm("New Version Available",
				"The application binary has been updated.\nRestart now?",
				func(restart bool) {
					if restart {
						log.Println("Hot reload: restarting...")
						if err := reloader.Restart(); err != nil {
							log.Printf("Hot reload: restart failed: %v", err)
						}
						return
					}
					reloader.ResetBaseline()
					reloader.Start()
				}, win)
		})
	})

	reloader.Start()
}
