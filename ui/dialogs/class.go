// Package dialogs provides application dialogs.
package dialogs

import (
	"strings"

	"masklab/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ShowAddClass prompts for a new class label and registers it with the
// session. onAdded runs with the label after a successful add.
func ShowAddClass(session *app.Session, parent fyne.Window, onAdded func(label string)) {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("class name")

	dialog.ShowForm("Add Class", "Add", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			label := strings.TrimSpace(entry.Text)
			if label == "" {
				return
			}
			if err := session.AddClass(label); err != nil {
				dialog.ShowError(err, parent)
				return
			}
			if onAdded != nil {
				onAdded(label)
			}
		}, parent)
}
