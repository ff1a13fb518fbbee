package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/grparry/mcpinvoke/internal/config"
	"github.com/grparry/mcpinvoke/mcp"
	"github.com/grparry/mcpinvoke/tools"
)

var rootCmd = &cobra.Command{
	Use:   "mcpinvoke",
	Short: "An MCP server exposing registered handler methods as tools",
	Long: `mcpinvoke serves registered handler methods as MCP tools over JSON-RPC 2.0.
The serve command runs a stdio transport (or an HTTP transport with --http)
with a built-in demo handler set, which is useful for smoke-testing MCP
clients. The list and call commands talk to a running HTTP endpoint.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo tools over stdio or HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		if !verbose {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}

		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(
			mcp.WithHandlers(demoHandlers(), tools.WithToolFilter(cfg.ToolFilter())),
			mcp.WithServerInfo(cfg.Server.Name, cfg.Server.Version),
			mcp.WithInstructions(cfg.Server.Instructions),
			mcp.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("error creating server: %w", err)
		}

		g, ctx := errgroup.WithContext(ctx)

		if httpAddr != "" {
			logger.Info("serving HTTP", "addr", httpAddr)
			srv := &http.Server{Addr: httpAddr, Handler: mcp.NewHTTPHandler(server)}
			g.Go(func() error {
				<-ctx.Done()
				return srv.Close()
			})
			g.Go(func() error {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		} else {
			g.Go(func() error {
				transport := mcp.NewStdioTransport(server, os.Stdin, os.Stdout, os.Stderr)
				return transport.Run(ctx)
			})
		}

		return g.Wait()
	},
}

var (
	verbose    bool
	httpAddr   string
	configPath string

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	serveCmd.Flags().StringVar(&httpAddr, "http", "", "Serve over HTTP on this address instead of stdio")
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
