package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/hackablelamp/controller"
	"github.com/calvinmclean/hackablelamp/ui"
)

// CreateUICmd creates the desktop remote command
func CreateUICmd() *cobra.Command {
	cfg := controller.ConfigFromEnv()

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop remote",
		Long:  "Opens a window with shutter, pattern and color controls. Without --port, a connection window is shown first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runUI(cmd.Context(), cfg)
			return nil
		},
	}

	addSerialFlags(cmd, &cfg)
	return cmd
}

func runUI(ctx context.Context, cfg controller.Config) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lampUI := ui.NewLampUI()

	connect := func() {
		c, err := controller.Open(cfg)
		if err != nil {
			slog.Error("error connecting", "error", err)
			window := lampUI.App().NewWindow("HackableLamp")
			window.Show()
			ui.ShowError(lampUI.App(), window, err)
			return
		}

		r, w := io.Pipe()

		// read from Stdin also
		go feedInput(w, os.Stdin)

		go func() {
			defer c.Close()
			err := c.Run(ctx, r, io.MultiWriter(os.Stdout, lampUI))
			if err != nil {
				slog.Error("controller stopped", "error", err)
			}
		}()

		lampUI.ShowMain(ctx, w)
	}

	if cfg.SerialPort != "" {
		connect()
	} else {
		cw := ui.NewConfigWindow(lampUI.App())
		cw.OnSubmit = connect
		cw.Show(&cfg)
	}

	lampUI.Run(ctx)
}

// feedInput copies in to w and closes w once in is exhausted, so the controller sees EOF
func feedInput(w io.WriteCloser, in io.Reader) {
	defer w.Close()
	io.Copy(w, in)
}
