// Package cmd implements the kraken CLI. Each command builds an engine,
// performs one middleware operation, and tears the engine down; no state
// survives between invocations.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridhaven/kraken/internal/config"
	"github.com/gridhaven/kraken/internal/observability"
	"github.com/gridhaven/kraken/pkg/engine"
)

var rootCmd = &cobra.Command{
	Use:   "kraken",
	Short: "Uniform access to batch schedulers and remote file stores",
	Long: `kraken drives heterogeneous compute and storage backends through one
uniform interface: local processes, Grid Engine clusters over ssh, FTP
servers, and S3-compatible object stores.

Resources are addressed by URI; the scheme picks the backend adaptor:

  kraken queues ge://login.cluster.example.org
  kraken submit --location ge://login.cluster.example.org job.yaml
  kraken ls s3://bucket/prefix/`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	logLevel string
	verbose  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

// loadConfig builds the configuration and initializes the CLI logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	observability.InitCLILogger(level, verbose)
	return cfg, nil
}

// newEngine builds an engine from the loaded configuration.
func newEngine() (*engine.Engine, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(engine.Config{
		Logger:            observability.CLILogger,
		DefaultProperties: cfg.DefaultProperties(),
	})
	return eng, cfg, nil
}

func endEngine(eng *engine.Engine) {
	_ = eng.End(context.Background())
}
