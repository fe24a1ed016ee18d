package export

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// SitemapConfig holds export configuration
type SitemapConfig struct {
	OutputFile        string
	IncludeLastmod    bool
	IncludeChangefreq bool
	DefaultPriority   float64
}

// DefaultSitemapConfig returns the settings used by the CLI
func DefaultSitemapConfig(outputFile string) SitemapConfig {
	return SitemapConfig{
		OutputFile:        outputFile,
		IncludeLastmod:    true,
		IncludeChangefreq: true,
		DefaultPriority:   0.8,
	}
}

// URLSet represents the XML sitemap structure
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL represents a single URL in the sitemap
type URL struct {
	Loc        string  `xml:"loc"`
	Lastmod    string  `xml:"lastmod,omitempty"`
	Changefreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

// ExportSitemap writes the recorded pages as an XML sitemap and returns
// the number of URLs written
func ExportSitemap(pages []types.PageRecord, config SitemapConfig) (int, error) {
	urlSet := URLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]URL, 0, len(pages)),
	}

	seen := make(map[string]bool, len(pages))
	for _, page := range pages {
		if seen[page.URL] {
			continue
		}
		seen[page.URL] = true

		u := URL{
			Loc:      page.URL,
			Priority: config.DefaultPriority,
		}

		if config.IncludeLastmod && !page.CrawledAt.IsZero() {
			u.Lastmod = page.CrawledAt.Format(time.RFC3339)
		}

		if config.IncludeChangefreq {
			u.Changefreq = "weekly"
		}

		urlSet.URLs = append(urlSet.URLs, u)
	}

	// Marshal to XML
	output, err := xml.MarshalIndent(urlSet, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal XML: %w", err)
	}

	// Add XML header
	xmlContent := []byte(xml.Header + string(output) + "\n")

	if err := os.WriteFile(config.OutputFile, xmlContent, 0644); err != nil {
		return 0, fmt.Errorf("failed to write sitemap: %w", err)
	}

	return len(urlSet.URLs), nil
}
