package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/BenjaminSRussell/sitecrawl/internal/config"
	"github.com/BenjaminSRussell/sitecrawl/internal/crawler"
	customhttp "github.com/BenjaminSRussell/sitecrawl/internal/http"
	"github.com/BenjaminSRussell/sitecrawl/internal/seeding"
	"github.com/BenjaminSRussell/sitecrawl/internal/session"
	"github.com/BenjaminSRussell/sitecrawl/internal/storage"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// newCrawler wires a crawler from the configuration. The returned cleanup
// releases the sitemap fetcher, if one was created.
func newCrawler(c *config.Config, onPage func(types.PageEvent)) (*crawler.Crawler, func(), error) {
	opts := crawler.Options{
		MaxPages:             c.MaxPages,
		BlockedHosts:         c.BlockedHosts,
		FollowDuplicateLinks: c.FollowDuplicateLinks,
		Detector:             c.NewDetector(component("readiness")),
		OnPage:               onPage,
	}

	cleanup := func() {}
	if c.SeedSitemap {
		retry := customhttp.DefaultRetryConfig()
		retry.MaxRetries = c.SeedMaxRetries

		fetcher, err := customhttp.NewFetcher(customhttp.ClientOptions{
			Timeout:        c.NavigationTimeout,
			Browser:        c.Browser,
			UserAgent:      c.UserAgent,
			TLSFingerprint: c.TLSFingerprint,
			Retry:          retry,
		}, component("http"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sitemap fetcher: %w", err)
		}
		opts.Seeder = seeding.NewSitemapSeeder(fetcher, c.MaxPages, component("seeding"))
		cleanup = fetcher.Close
	}

	return crawler.New(c.NewRenderer(component("renderer")), opts, component("crawler")), cleanup, nil
}

// openRegistry opens the site index under the data directory
func openRegistry(c *config.Config) (*session.Registry, func() error, error) {
	store, err := storage.NewSQLiteStore(c.DatabasePath())
	if err != nil {
		return nil, nil, err
	}
	return session.NewRegistry(store, component("session")), store.Close, nil
}

func component(name string) *logrus.Entry {
	return logger.WithField("component", name)
}
