package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/EvanAranda/go-ext/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to config.toml (default $GOEXT_HOME/config.toml)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveConfig string
	serveHost   string
	servePort   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the jobd daemon",
	Long:  `Start the worker pool with the HTTP API, cron schedules, and the job ledger.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig(serveConfig)
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	return d.Run(context.Background())
}
