// File: cmd/collect.go
package cmd

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/internal/browser"
	"github.com/xkilldash9x/fpcrawl/internal/fingerprint"
	"github.com/xkilldash9x/fpcrawl/internal/observability"
	"github.com/xkilldash9x/fpcrawl/internal/store"
)

// newCollectCmd creates the `collect` command: the browser-driven
// identity collection phase.
func newCollectCmd() *cobra.Command {
	var (
		keyword  string
		headless bool
	)

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Collects a browser identity (TLS fingerprint + cookies) and stores it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}

			pool, err := pgxpool.New(ctx, cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("create database pool: %w", err)
			}
			defer pool.Close()

			repo, err := store.New(ctx, pool, logger)
			if err != nil {
				return err
			}
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}

			driver, err := browser.NewDriver(ctx, cfg.Browser, logger)
			if err != nil {
				return err
			}
			defer driver.Close()

			acquirer := fingerprint.NewAcquirer(driver, cfg.Oracle, nil, logger)
			collector := browser.NewCollector(driver, acquirer, repo, cfg, logger)

			result, err := collector.Run(ctx, keyword)
			if err != nil {
				return err
			}

			logger.Info("Identity collected",
				zap.Int64("fingerprint_id", result.FingerprintID),
				zap.Int64("cookie_id", result.CookieID),
				zap.Int("cookies", result.CookieCount),
				zap.String("device", result.Meta.DeviceName))
			return nil
		},
	}

	collectCmd.Flags().StringVarP(&keyword, "search", "s", "", "warm the session with a search for this keyword")
	collectCmd.Flags().BoolVar(&headless, "headless", true, "run Chrome headless")
	return collectCmd
}
