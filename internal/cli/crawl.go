package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/sitecrawl/internal/config"
	"github.com/BenjaminSRussell/sitecrawl/internal/crawler"
	"github.com/BenjaminSRussell/sitecrawl/internal/export"
)

var (
	startURL       string
	maxPages       int
	rendererName   string
	headless       bool
	followDupLinks bool
	seedSitemap    bool
	outputPath     string
	outputFormat   string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a site and print or export its pages",
	Long:  `Crawl every same-domain page reachable from the start URL, up to the page cap, and print each page as a document or write them to a file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCrawlFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		c, cleanup, err := newCrawler(cfg, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := c.Crawl(cmd.Context(), startURL)
		if res == nil {
			return fmt.Errorf("crawl failed: %w", err)
		}
		if err != nil {
			component("crawler").WithError(err).Warn("Crawl stopped early, keeping partial results")
		}

		if outputPath == "" {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join(res.Documents(), "\n\n"))
		} else {
			exp, expErr := export.NewExporter(filepath.Dir(outputPath))
			if expErr != nil {
				return expErr
			}
			if expErr := exp.Export(res.Pages, outputFormat, filepath.Base(outputPath)); expErr != nil {
				return fmt.Errorf("export failed: %w", expErr)
			}
		}

		printStats(cmd, res)
		return err
	},
}

// applyCrawlFlags overlays explicitly set flags on the loaded configuration
func applyCrawlFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-pages") {
		c.MaxPages = maxPages
	}
	if flags.Changed("renderer") {
		c.Renderer = rendererName
	}
	if flags.Changed("headless") {
		c.Headless = headless
	}
	if flags.Changed("follow-duplicate-links") {
		c.FollowDuplicateLinks = followDupLinks
	}
	if flags.Changed("seed-sitemap") {
		c.SeedSitemap = seedSitemap
	}
}

func printStats(cmd *cobra.Command, res *crawler.Result) {
	s := res.Stats
	fmt.Fprintf(cmd.ErrOrStderr(), "Crawl completed in %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(cmd.ErrOrStderr(), "Visited: %d, Recorded: %d, Duplicates: %d, Empty: %d, Blocked: %d, Failed: %d, Discovered: %d\n",
		s.Visited, s.Recorded, s.Duplicates, s.Empty, s.Blocked, s.FailureCount(), s.Discovered)
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&startURL, "start-url", "", "Starting URL (required)")
	cmd.Flags().IntVar(&maxPages, "max-pages", crawler.DefaultMaxPages, "Maximum number of pages to visit")
	cmd.Flags().StringVar(&rendererName, "renderer", config.RendererChrome, "Renderer: chrome/http")
	cmd.Flags().BoolVar(&headless, "headless", true, "Run Chrome without a window")
	cmd.Flags().BoolVar(&followDupLinks, "follow-duplicate-links", false, "Follow links found on duplicate-content pages")
	cmd.Flags().BoolVar(&seedSitemap, "seed-sitemap", false, "Seed the frontier from the site's sitemaps")
	cmd.MarkFlagRequired("start-url")
}

func init() {
	addCrawlFlags(crawlCmd)
	crawlCmd.Flags().StringVar(&outputPath, "output", "", "Write pages to this file instead of stdout")
	crawlCmd.Flags().StringVar(&outputFormat, "format", export.FormatJSONL, "Output format: jsonl/json/csv")
}
