package main

import (
	"fmt"
	"os"

	"github.com/benvon/sneaker-inventory/cmd/inventoryctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "inventoryctl",
		Short:        "Administration tool for the Sneaker Inventory API",
		Long:         "CLI tool for running migrations, inspecting users and checking Firebase tokens",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewUserCmd())
	rootCmd.AddCommand(commands.NewTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
