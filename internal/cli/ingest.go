package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/sitecrawl/internal/crawler"
	"github.com/BenjaminSRussell/sitecrawl/internal/ingest"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

var quiet bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Crawl a site and index it for later queries",
	Long:  `Crawl a site and store the recorded pages as the current session of its domain, replacing any earlier session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCrawlFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		registry, closeStore, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		crawl := func(ctx context.Context, startURL string, onPage func(types.PageEvent)) (*crawler.Result, error) {
			c, cleanup, err := newCrawler(cfg, onPage)
			if err != nil {
				return nil, err
			}
			defer cleanup()
			return c.Crawl(ctx, startURL)
		}

		task := ingest.New(crawl, registry, cfg.MaxPages, component("ingest")).Start(cmd.Context(), startURL)

		var s *spinner.Spinner
		if !quiet {
			s = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
			s.Start()
		}
		for ev := range task.Events() {
			if s != nil {
				s.Lock()
				s.Suffix = fmt.Sprintf(" %3d%% %s", ev.Percent, ev.Message)
				s.Unlock()
			}
		}
		if s != nil {
			s.Stop()
		}

		sess, err := task.Wait()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d pages of %s (session %s)\n", sess.PageCount, sess.Domain, sess.ID)
		return nil
	},
}

func init() {
	addCrawlFlags(ingestCmd)
	ingestCmd.Flags().BoolVar(&quiet, "quiet", false, "Hide the progress spinner")
}
