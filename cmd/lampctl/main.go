package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	root := &cobra.Command{
		Use:   "lampctl",
		Short: "Control and simulate a HackableLamp",
		Long: `Control a HackableLamp over USB serial from the terminal or a desktop remote, or run the ` +
			`lamp's control loop on this machine with a simulated strip and servo.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		CreateRunCmd(),
		CreateUICmd(),
		CreateSimulateCmd(),
		CreatePortsCmd(),
	)

	err := root.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}
