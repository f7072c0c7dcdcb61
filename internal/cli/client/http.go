// Package client implements the lawsearch CLI commands that talk to a
// running lawsearchd server.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envAPIURL   = "LAWSEARCH_API_URL"
	envClientID = "LAWSEARCH_CLIENT_ID"

	defaultAPIURL = "http://localhost:8080"
)

type APIClient struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// ErrorBody is the server's JSON error envelope.
type ErrorBody struct {
	Error string `json:"error"`
}

// SuccessBody is the server's JSON success envelope.
type SuccessBody struct {
	Data json.RawMessage `json:"data"`
}

// NewAPIClientWithCmd creates an APIClient with config cascade: flag → env → default.
// If cmd is nil, skips flag checking and goes directly to env → default.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	_ = godotenv.Load()

	var baseURL, clientID string

	if cmd != nil {
		if flagURL, err := cmd.Flags().GetString("api-url"); err == nil && flagURL != "" {
			baseURL = flagURL
		}
		if flagClient, err := cmd.Flags().GetString("client-id"); err == nil && flagClient != "" {
			clientID = flagClient
		}
	}

	if baseURL == "" {
		baseURL = os.Getenv(envAPIURL)
	}
	if clientID == "" {
		clientID = os.Getenv(envClientID)
	}

	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &APIClient{
		baseURL:  baseURL,
		clientID: clientID,
		httpClient: &http.Client{
			// Searches stream for as long as the pipeline runs; rely on
			// server-side limits rather than a client timeout.
			Timeout: 0,
		},
	}, nil
}

// ClientID returns the configured client id, empty for anonymous use.
func (c *APIClient) ClientID() string {
	return c.clientID
}

// Do issues a request against the API and returns the raw response. The
// caller owns the body.
func (c *APIClient) Do(method, path string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// GetJSON issues a GET and decodes the success envelope into v.
func (c *APIClient) GetJSON(path string, v interface{}) error {
	resp, err := c.Do(http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var body SuccessBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(body.Data, v)
}

// Delete issues a DELETE and decodes the success envelope into v when the
// server returns one.
func (c *APIClient) Delete(path string, v interface{}) error {
	resp, err := c.Do(http.MethodDelete, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusOK:
		if v == nil {
			return nil
		}
		var body SuccessBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return json.Unmarshal(body.Data, v)
	default:
		return apiError(resp)
	}
}

func apiError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body ErrorBody
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

func printJSON(v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// FormatTimestamp renders a server timestamp for terminal output.
func FormatTimestamp(ts string) string {
	parsed, err := time.Parse("2006-01-02T15:04:05Z", ts)
	if err != nil {
		return ts
	}
	return parsed.Format("2006-01-02 15:04")
}
