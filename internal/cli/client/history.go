package client

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// HistoryEntry is one row of the client's search history.
type HistoryEntry struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	SearchedAt  string `json:"searched_at"`
	ResultCount int    `json:"result_count"`
}

// HistoryCmd creates the history command with its subcommands.
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage search history",
		Long:  "List, delete, or clear your recorded searches. Requires a client id (--client-id or LAWSEARCH_CLIENT_ID).",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyDeleteCmd())
	cmd.AddCommand(historyClearCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent searches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			params := url.Values{}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/search/history"
			if encoded := params.Encode(); encoded != "" {
				path += "?" + encoded
			}

			var entries []HistoryEntry
			if err := api.GetJSON(path, &entries); err != nil {
				return err
			}

			if outputJSON {
				return printJSON(entries)
			}

			if len(entries) == 0 {
				fmt.Println("No search history.")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s  %-40q  %d results  [%s]\n",
					FormatTimestamp(e.SearchedAt), e.Query, e.ResultCount, e.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries to return (server default 50)")

	return cmd
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if err := api.Delete("/api/search/history/"+url.PathEscape(args[0]), nil); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			var result struct {
				Deleted int64 `json:"deleted"`
			}
			if err := api.Delete("/api/search/history", &result); err != nil {
				return err
			}
			fmt.Printf("Deleted %d entries.\n", result.Deleted)
			return nil
		},
	}
}
