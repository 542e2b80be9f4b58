// File: cmd/crawl.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/internal/artifacts"
	"github.com/xkilldash9x/fpcrawl/internal/crawler"
	"github.com/xkilldash9x/fpcrawl/internal/observability"
	"github.com/xkilldash9x/fpcrawl/internal/replay"
	"github.com/xkilldash9x/fpcrawl/internal/store"
)

// newCrawlCmd creates the `crawl` command: the replay phase that
// fetches result pages through the impersonating client.
func newCrawlCmd() *cobra.Command {
	var maxPages int

	crawlCmd := &cobra.Command{
		Use:   "crawl <keyword>",
		Short: "Crawls search result pages using the latest stored identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			keyword := args[0]

			if cmd.Flags().Changed("pages") {
				cfg.Crawler.MaxPages = maxPages
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

			identity, err := repo.LoadLatest(ctx)
			if errors.Is(err, store.ErrNoIdentity) {
				return fmt.Errorf("no stored identity; run `fpcrawl collect` first")
			}
			if err != nil {
				return err
			}

			builder := replay.NewBuilder(nil, logger)
			replayCfg := builder.Build(identity.Fingerprint)
			if cfg.Replay.ForceTLS12 {
				replayCfg = builder.Downgrade(replayCfg)
			}

			client, err := replay.NewClient(replayCfg, identity.Fingerprint, cfg.Replay, cfg.Target.CookieDomain, logger)
			if err != nil {
				return err
			}

			sink, err := artifacts.NewSink(cfg.Output.BaseDir, logger)
			if err != nil {
				return err
			}

			orch := crawler.NewOrchestrator(cfg, identity, client, repo, sink, logger)
			summary, err := orch.Run(ctx, keyword)
			if err != nil {
				return err
			}
			if !summary.Success {
				logger.Warn("Crawl finished with failures",
					zap.Int("successful", summary.Totals.Successful),
					zap.Int("total", summary.Totals.Total))
				return fmt.Errorf("crawl incomplete: %d/%d pages succeeded", summary.Totals.Successful, summary.MaxPages)
			}
			return nil
		},
	}

	crawlCmd.Flags().IntVarP(&maxPages, "pages", "p", 3, "number of result pages to fetch")
	return crawlCmd
}
