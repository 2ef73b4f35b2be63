// Command greenleaf runs the leaf sample API server and talks to it as a
// client.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"greenleaf/internal/config"
	"greenleaf/internal/observability"
	"greenleaf/internal/present"
	"greenleaf/pkg/client"
)

var (
	// Global flags
	configPath string
	verbose    bool
	serverURL  string
	token      string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "greenleaf",
	Short: "Green Leaf sample service",
	Long: `greenleaf stores leaf sample records with a stub infection analysis and
serves them over a REST API, together with dashboard statistics, map data
and spreadsheet exports.

Run "greenleaf serve" to start the API. The samples, stats and export
commands call a running server using --server and --token.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = observability.NewLogger(cfg.Logging.Level, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "greenleaf.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("GREENLEAF_SERVER", "http://localhost:4000"), "API base URL for client commands")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("GREENLEAF_TOKEN"), "Bearer token for client commands (or GREENLEAF_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Client request timeout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func session() *client.Session {
	s := client.New(serverURL, token)
	s.HTTPClient.Timeout = timeout
	return s
}

func styles() present.Styles {
	return present.DefaultStyles()
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
