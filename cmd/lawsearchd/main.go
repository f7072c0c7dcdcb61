package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civitas-legal/lawsearch/internal/cli"
	"github.com/civitas-legal/lawsearch/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lawsearchd",
		Short: "Lawsearch daemon",
		Long:  "Lawsearch daemon for running the legal document search API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
