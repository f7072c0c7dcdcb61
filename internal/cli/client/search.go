package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// SearchResult is one hydrated document as the server streams it.
type SearchResult struct {
	CID              string `json:"cid"`
	BluebookCID      string `json:"bluebook_cid"`
	Title            string `json:"title"`
	Chapter          string `json:"chapter,omitempty"`
	PlaceName        string `json:"place_name"`
	StateName        string `json:"state_name"`
	BluebookCitation string `json:"bluebook_citation"`
	HTML             string `json:"html"`
}

// SearchSnapshot is one cumulative NDJSON line from the search endpoint.
type SearchSnapshot struct {
	Results    []SearchResult `json:"results"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
	Error      string         `json:"error,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search legal documents",
		Long:  "Searches municipal legal documents with a natural-language query. Results stream in as the server scores them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runSearch(api, args[0], page, perPage, outputJSON)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page to fetch")
	cmd.Flags().IntVarP(&perPage, "per-page", "n", 20, "Results per page")

	return cmd
}

func runSearch(api *APIClient, query string, page, perPage int, outputJSON bool) error {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	resp, err := api.Do(http.MethodGet, "/api/search?"+params.Encode())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var final *SearchSnapshot
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var snap SearchSnapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			return fmt.Errorf("failed to parse search results: %w", err)
		}
		if snap.Error != "" {
			return fmt.Errorf("search failed: %s", snap.Error)
		}

		final = &snap
		if !outputJSON {
			fmt.Printf("\rscored %d of %d matching documents...", len(snap.Results), snap.Total)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream interrupted: %w", err)
	}
	if final == nil {
		return fmt.Errorf("server sent no results")
	}
	if !outputJSON {
		fmt.Println()
	}

	if outputJSON {
		output, _ := json.MarshalIndent(final, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(final.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results (page %d of %d):\n\n", final.Total, final.Page, final.TotalPages)
	for i, result := range final.Results {
		fmt.Printf("%d. %s\n", i+1, result.Title)
		fmt.Printf("   %s, %s\n", result.PlaceName, result.StateName)
		if result.BluebookCitation != "" {
			fmt.Printf("   %s\n", result.BluebookCitation)
		}
		fmt.Printf("   CID: %s\n", result.CID)
		if i < len(final.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
