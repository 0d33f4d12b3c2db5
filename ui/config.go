package ui

import (
	"errors"
	"fmt"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/hackablelamp/controller"
)

type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

func (cw *ConfigWindow) loadConfigFromPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	cfg.SerialPort = prefs.StringWithFallback("serialPort", cfg.SerialPort)
	cfg.BaudRate = prefs.StringWithFallback("baudRate", controller.DefaultBaudRate)
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetString("baudRate", cfg.BaudRate)
}

func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("HackableLamp - Connect")
	window.Resize(fyne.NewSize(400, 180))
	window.SetCloseIntercept(func() {
		// closing without connecting quits
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	cw.loadConfigFromPreferences(cfg)

	f := newConnectForm(cfg, controller.GetSerialPorts)
	err := f.refreshPorts()
	if err != nil {
		ShowError(cw.app, window, err)
		return
	}

	f.connect.OnTapped = func() {
		cw.saveConfigToPreferences(cfg)
		window.Close()
		cw.OnSubmit()
	}

	window.SetContent(f.content(func() {
		window.Close()
		cw.app.Quit()
	}))
}

// connectForm edits a controller.Config. Connect is only enabled while the config can open a port
type connectForm struct {
	cfg       *controller.Config
	listPorts func() ([]string, error)

	ports   *widget.Select
	baud    *widget.Entry
	status  *widget.Label
	connect *widget.Button
}

func newConnectForm(cfg *controller.Config, listPorts func() ([]string, error)) *connectForm {
	f := &connectForm{
		cfg:       cfg,
		listPorts: listPorts,
		status:    widget.NewLabel(""),
		connect:   widget.NewButton("Connect", nil),
	}

	f.ports = widget.NewSelect(nil, func(port string) {
		f.cfg.SerialPort = port
		f.validate()
	})

	f.baud = widget.NewEntry()
	f.baud.SetPlaceHolder(controller.DefaultBaudRate)
	f.baud.SetText(cfg.BaudRate)
	f.baud.OnChanged = func(baud string) {
		f.cfg.BaudRate = baud
		f.validate()
	}

	f.validate()
	return f
}

// refreshPorts lists the USB serial ports. SerialPortNone is always offered, and so is a
// configured port that is not plugged in right now
func (f *connectForm) refreshPorts() error {
	ports, err := f.listPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		return fmt.Errorf("error getting serial ports: %w", err)
	}
	ports = append(ports, controller.SerialPortNone)

	if f.cfg.SerialPort == "" {
		f.cfg.SerialPort = ports[0]
	}
	if !slices.Contains(ports, f.cfg.SerialPort) {
		ports = append([]string{f.cfg.SerialPort}, ports...)
	}

	f.ports.SetOptions(ports)
	f.ports.SetSelected(f.cfg.SerialPort)
	f.validate()
	return nil
}

func (f *connectForm) validate() {
	_, err := f.cfg.Mode()
	switch {
	case f.cfg.SerialPort == "":
		f.status.SetText("No serial port selected")
		f.connect.Disable()
	case err != nil:
		f.status.SetText(err.Error())
		f.connect.Disable()
	default:
		f.status.SetText("")
		f.connect.Enable()
	}
}

func (f *connectForm) content(onCancel func()) fyne.CanvasObject {
	refresh := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		err := f.refreshPorts()
		if err != nil {
			f.status.SetText(err.Error())
		}
	})

	return container.NewVBox(
		widget.NewCard("Connection", "", container.NewVBox(
			container.NewGridWithColumns(2,
				widget.NewLabel("Serial Port:"),
				container.NewBorder(nil, nil, nil, refresh, f.ports),
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Baud Rate:"),
				f.baud,
			),
			f.status,
		)),
		container.NewHBox(
			widget.NewButton("Cancel", onCancel),
			f.connect,
		),
	)
}

// ShowError shows err and quits once it is dismissed
func ShowError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
