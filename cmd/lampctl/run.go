package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/hackablelamp/controller"
)

// CreateRunCmd creates the interactive serial command
func CreateRunCmd() *cobra.Command {
	cfg := controller.ConfigFromEnv()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send commands to a lamp from the terminal",
		Long:  "Reads commands from stdin and sends them to the lamp over USB serial.\n\n" + controller.Usage(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := controller.Open(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			return c.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}

	addSerialFlags(cmd, &cfg)
	return cmd
}

func addSerialFlags(cmd *cobra.Command, cfg *controller.Config) {
	cmd.Flags().StringVarP(&cfg.SerialPort, "port", "p", cfg.SerialPort, "serial port of the lamp (env LAMP_SERIAL_PORT)")
	cmd.Flags().StringVarP(&cfg.BaudRate, "baud", "b", cfg.BaudRate, "baud rate (env LAMP_BAUD_RATE)")
}
