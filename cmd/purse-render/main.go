package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"purse/cmd/purse-render/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "purse-render",
		Short:        "Render purse visualisations to files",
		Long:         "Draws the year histogram of a saved summary page and the tag cloud of a year without running the server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewHistogramCmd())
	rootCmd.AddCommand(commands.NewCloudCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
