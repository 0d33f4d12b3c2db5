package ui

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/hackablelamp"
)

// AppID identifies the app's preferences
const AppID = "com.calvinmclean.hackablelamp"

const maxLogLines = 200

// LampUI is a desktop remote for the lamp. Commands are written as text lines for
// controller.Client.Run and everything written to LampUI is shown in the log panel
type LampUI struct {
	app fyne.App

	mtx        sync.Mutex
	logs       []string
	partial    string
	logContent *widget.Label
}

// NewLampUI creates the fyne app. Call Run to start it
func NewLampUI() *LampUI {
	return newLampUI(app.NewWithID(AppID))
}

func newLampUI(a fyne.App) *LampUI {
	return &LampUI{app: a}
}

// App returns the underlying fyne app
func (ui *LampUI) App() fyne.App {
	return ui.app
}

// Write adds complete lines to the log panel
func (ui *LampUI) Write(p []byte) (int, error) {
	ui.mtx.Lock()
	text := ui.partial + string(p)
	lines := strings.Split(text, "\n")
	ui.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		ui.logs = append(ui.logs, line)
	}
	if len(ui.logs) > maxLogLines {
		ui.logs = ui.logs[len(ui.logs)-maxLogLines:]
	}
	content := strings.Join(ui.logs, "\n")
	label := ui.logContent
	ui.mtx.Unlock()

	if label != nil {
		fyne.Do(func() {
			label.SetText(content)
		})
	}
	return len(p), nil
}

func (ui *LampUI) logText() string {
	ui.mtx.Lock()
	defer ui.mtx.Unlock()
	return strings.Join(ui.logs, "\n")
}

func createShutterSlider(onSet func(float64)) *fyne.Container {
	defaultValue := 50.0
	valueLabel := widget.NewLabel(fmt.Sprintf("%.0f%%", defaultValue))

	slider := widget.NewSlider(0, 100)
	slider.Step = 1
	slider.SetValue(defaultValue)
	slider.OnChanged = func(value float64) {
		valueLabel.SetText(fmt.Sprintf("%.0f%%", value))
	}
	slider.OnChangeEnded = onSet

	closeButton := widget.NewButton("Close", func() {
		slider.SetValue(0)
		onSet(0)
	})
	openButton := widget.NewButton("Open", func() {
		slider.SetValue(100)
		onSet(100)
	})

	return container.NewVBox(
		container.NewGridWithColumns(3,
			widget.NewLabel("Shutter"),
			valueLabel,
			container.NewHBox(closeButton, openButton),
		),
		slider,
	)
}

func createPatternSelect(onSelect func(hackablelamp.PatternID)) *fyne.Container {
	names := hackablelamp.PatternNames()
	sel := widget.NewSelect(names, func(name string) {
		for i, n := range names {
			if n == name {
				onSelect(hackablelamp.PatternID(i))
				return
			}
		}
	})
	sel.PlaceHolder = "Select pattern"

	next := widget.NewButton("Next", func() {
		i := sel.SelectedIndex() + 1
		if i >= len(names) {
			i = 0
		}
		sel.SetSelectedIndex(i)
	})

	return container.NewBorder(nil, nil, widget.NewLabel("Pattern"), next, sel)
}

func createColorButton(window fyne.Window, onSet func(color.Color)) *widget.Button {
	return widget.NewButton("Solid Color...", func() {
		picker := dialog.NewColorPicker("Solid Color", "Color used by the Solid Color pattern", onSet, window)
		picker.Advanced = true
		picker.Show()
	})
}

func (ui *LampUI) createLogAccordion() *widget.Accordion {
	ui.mtx.Lock()
	ui.logContent = widget.NewLabel(strings.Join(ui.logs, "\n"))
	logContent := ui.logContent
	ui.mtx.Unlock()

	logScroll := container.NewVScroll(logContent)
	logScroll.SetMinSize(fyne.NewSize(300, 100))

	return widget.NewAccordion(
		widget.NewAccordionItem("Logs", logScroll),
	)
}

// ShowMain opens the remote window. Commands are written to w
func (ui *LampUI) ShowMain(ctx context.Context, w io.Writer) {
	window := ui.app.NewWindow("HackableLamp")

	lastEvent := newSinceTimer()
	lastEvent.Go(ctx)

	c := &commandWriter{writer: w, lastEvent: lastEvent}

	contentContainer := container.NewVBox(
		container.NewHBox(
			layout.NewSpacer(),
			container.NewPadded(lastEvent.text),
		),
		createShutterSlider(c.SetShutter),
		createPatternSelect(c.SetPattern),
		createColorButton(window, c.SetColor),
		ui.createLogAccordion(),
	)

	window.SetContent(contentContainer)
	window.Resize(fyne.NewSize(360, 260))
	window.SetOnClosed(ui.app.Quit)
	window.Show()
}

// Run starts the fyne event loop and blocks until the app quits or ctx is done
func (ui *LampUI) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	ui.app.Run()
}
