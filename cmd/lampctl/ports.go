package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/hackablelamp/controller"
)

// CreatePortsCmd creates the command that lists USB serial ports
func CreatePortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List USB serial ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := controller.GetSerialPorts()
			if errors.Is(err, controller.ErrNoUSBSerial) {
				fmt.Fprintln(cmd.OutOrStdout(), "no USB serial ports found")
				return nil
			}
			if err != nil {
				return err
			}

			for _, port := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), port)
			}
			return nil
		},
	}
}
