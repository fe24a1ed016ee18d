package seeding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	customhttp "github.com/BenjaminSRussell/sitecrawl/internal/http"
	"github.com/BenjaminSRussell/sitecrawl/internal/parser"
)

const (
	maxSitemapBytes = 10 << 20
	maxSitemapDepth = 3
)

// SitemapSeeder discovers page URLs from a site's sitemaps. robots.txt is
// read only for its Sitemap directives; its rules are not applied.
type SitemapSeeder struct {
	fetcher *customhttp.Fetcher
	log     *logrus.Entry
	maxURLs int
}

// NewSitemapSeeder creates a seeder returning at most maxURLs URLs
// (0 means unlimited)
func NewSitemapSeeder(fetcher *customhttp.Fetcher, maxURLs int, log *logrus.Entry) *SitemapSeeder {
	return &SitemapSeeder{fetcher: fetcher, log: log, maxURLs: maxURLs}
}

// Seed returns the URLs listed in the start URL's sitemaps
func (s *SitemapSeeder) Seed(ctx context.Context, startURL string) ([]string, error) {
	parsedURL, err := url.Parse(startURL)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q", startURL)
	}
	root := parsedURL.Scheme + "://" + parsedURL.Host

	sitemapURLs := []string{
		root + "/sitemap.xml",
		root + "/sitemap_index.xml",
	}
	sitemapURLs = append(sitemapURLs, s.robotsSitemaps(ctx, root+"/robots.txt")...)

	d := &discovery{seeder: s, visited: make(map[string]bool), seen: make(map[string]bool)}
	for _, sitemapURL := range sitemapURLs {
		if err := ctx.Err(); err != nil {
			return d.urls, err
		}
		if err := d.fetch(ctx, sitemapURL, 0); err != nil {
			s.log.WithError(err).WithField("sitemap", sitemapURL).Debug("Sitemap unavailable")
		}
		if d.full() {
			break
		}
	}

	s.log.WithField("urls", len(d.urls)).Debug("Sitemap discovery finished")
	return d.urls, nil
}

func (s *SitemapSeeder) robotsSitemaps(ctx context.Context, robotsURL string) []string {
	body, status, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil
	}
	robots, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		s.log.WithError(err).Debug("Failed to parse robots.txt")
		return nil
	}
	return robots.Sitemaps
}

func (s *SitemapSeeder) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	resp, err := s.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

type discovery struct {
	seeder  *SitemapSeeder
	visited map[string]bool
	seen    map[string]bool
	urls    []string
}

func (d *discovery) full() bool {
	return d.seeder.maxURLs > 0 && len(d.urls) >= d.seeder.maxURLs
}

func (d *discovery) fetch(ctx context.Context, sitemapURL string, depth int) error {
	if d.visited[sitemapURL] || depth > maxSitemapDepth {
		return nil
	}
	d.visited[sitemapURL] = true

	body, status, err := d.seeder.get(ctx, sitemapURL)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("sitemap returned status %d", status)
	}

	content := string(body)
	locs := parser.ExtractSitemapURLs(content)

	if parser.IsSitemapIndex(content) {
		for _, loc := range locs {
			if d.full() {
				return nil
			}
			if err := d.fetch(ctx, loc, depth+1); err != nil {
				d.seeder.log.WithError(err).WithField("sitemap", loc).Debug("Nested sitemap unavailable")
			}
		}
		return nil
	}

	for _, loc := range locs {
		if d.full() {
			return nil
		}
		if !d.seen[loc] {
			d.seen[loc] = true
			d.urls = append(d.urls, loc)
		}
	}
	return nil
}
