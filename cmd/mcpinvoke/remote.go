package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"

	"github.com/grparry/mcpinvoke/mcp"
)

var (
	endpoint string
	auth     string
	retries  int
	timeout  time.Duration
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tools of a running HTTP endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newRemoteClient()
		listed, err := client.ListTools(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listed)
	},
}

var callCmd = &cobra.Command{
	Use:   "call <tool> [arguments-json]",
	Short: "Call a tool on a running HTTP endpoint",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		arguments := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
				return fmt.Errorf("arguments must be a JSON object: %w", err)
			}
		}

		client := newRemoteClient()
		result, err := client.CallTool(cmd.Context(), args[0], arguments)
		if err != nil {
			return err
		}
		if result.IsError {
			for _, c := range result.Content {
				fmt.Fprintln(os.Stderr, c.Text)
			}
			return fmt.Errorf("tool %s reported an error", args[0])
		}
		for _, c := range result.Content {
			fmt.Fprintln(os.Stdout, c.Text)
		}
		return nil
	},
}

func newRemoteClient() *mcp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return mcp.NewClient(endpoint, retryClient.StandardClient(), auth)
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, callCmd} {
		cmd.Flags().StringVar(&endpoint, "endpoint", "http://127.0.0.1:8080/rpc", "HTTP endpoint of the server")
		cmd.Flags().StringVar(&auth, "auth", "", "Authorization header value (e.g. 'Bearer token123')")
		cmd.Flags().IntVar(&retries, "retries", 3, "Maximum number of retries for failed requests")
		cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "HTTP request timeout")
	}
}
