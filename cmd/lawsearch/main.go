package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civitas-legal/lawsearch/internal/cli"
	"github.com/civitas-legal/lawsearch/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lawsearch",
		Short: "Lawsearch CLI - natural-language search over municipal legal documents",
		Long: `Lawsearch CLI searches municipal legal documents with plain-English queries.

Environment variables:
  LAWSEARCH_API_URL     API base URL (default: http://localhost:8080)
  LAWSEARCH_CLIENT_ID   Client id for search history (optional)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	rootCmd.PersistentFlags().String("client-id", "", "Client id for search history (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.HistoryCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
