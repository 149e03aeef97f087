package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docdex/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docdex/internal/logger"
	"github.com/custodia-labs/docdex/internal/watcher"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server.

By default, the server communicates over stdio and can be used with
MCP-compatible AI assistants. Use --port to serve HTTP instead.

Examples:
  # Stdio mode (default)
  docdex serve --root ./docs

  # HTTP mode
  docdex serve --root ./docs --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.VectorStore.Connect(ctx); err != nil {
		logger.Warn("Vector store unavailable, answers will fail (lexical search still works): %v", err)
	} else if _, err := application.Indexer.Sync(ctx); err != nil {
		logger.Warn("Initial vector sync failed: %v", err)
	}

	if application.Cfg.WatchEnabled() {
		w, err := watcher.New(watcher.Config{
			Root: application.Cfg.Corpus.Root,
			OnReindex: func(relFile string) {
				if err := application.Indexer.SyncFile(ctx, relFile); err != nil {
					logger.Error("Reindex of %s failed: %v", relFile, err)
				}
			},
		}, application.Index, application.FactCache, application.QueryCache)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer w.Stop() //nolint:errcheck
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:  application.Search,
		Answer:  application.RAG,
		Update:  application.Update,
		Corpus:  application.Corpus,
		Metrics: application.Metrics,
	})
	if err != nil {
		return err
	}

	if servePort > 0 {
		addr := fmt.Sprintf("localhost:%d", servePort)
		logger.Info("Serving MCP over HTTP on %s", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
