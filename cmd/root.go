// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/internal/config"
	"github.com/xkilldash9x/fpcrawl/internal/observability"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "fpcrawl",
	Short: "Collects browser network identities and replays them for crawling",
	Long: `fpcrawl runs in two phases. "collect" drives a real Chrome session
through the target site and a TLS fingerprint oracle, persisting the
resulting identity (fingerprint + cookies). "crawl" loads the latest
identity and fetches search result pages through an impersonating
HTTP client that reproduces it.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "fpcrawl"})
			return err
		}
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting fpcrawl", zap.String("version", Version))
		return nil
	},
}

// Execute runs the root command under the given context.
func Execute(ctx context.Context) {
	defer observability.Sync()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newCrawlCmd())
}
