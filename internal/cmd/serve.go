package cmd

import (
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/internal/observability"
	"github.com/gridhaven/kraken/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the status HTTP surface",
	Long: `Run the status HTTP server: health and the adaptor catalog.

Host and port come from the configuration (server.host, server.port),
overridable via KRAKEN_SERVER_HOST and KRAKEN_SERVER_PORT.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, cfg, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, eng, observability.CLILogger)
	if err := srv.Start(ctx); err != nil {
		observability.CLILogger.Error("Server failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	return nil
}
