package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/hackablelamp/simulator"
)

// CreateSimulateCmd creates the simulator command
func CreateSimulateCmd() *cobra.Command {
	var configFile string
	var opcAddr string
	var ble bool
	var noTerminal bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the lamp's control loop on this machine",
		Long: `Runs the lamp firmware on this machine. Serial frames are read from stdin (or serial_port in the ` +
			`config file) and the strip is drawn in the terminal and/or sent to an Open Pixel Control server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := simulator.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if opcAddr != "" {
				cfg.OPC.Address = opcAddr
			}
			if ble {
				cfg.BLE = true
			}
			if noTerminal {
				cfg.Terminal = false
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

			sim, err := simulator.New(cfg, logger, simulator.WithTerminal(os.Stderr))
			if err != nil {
				return err
			}

			logger.Info("starting simulator", "pixels", cfg.Pixels.Count, "opc", cfg.OPC.Address, "ble", cfg.BLE)
			return sim.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&opcAddr, "opc", "", "Open Pixel Control server address, like localhost:7890")
	cmd.Flags().BoolVar(&ble, "ble", false, "advertise the simulated lamp over BLE")
	cmd.Flags().BoolVar(&noTerminal, "no-terminal", false, "do not draw the strip in the terminal")
	return cmd
}
