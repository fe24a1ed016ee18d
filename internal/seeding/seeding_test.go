package seeding

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customhttp "github.com/BenjaminSRussell/sitecrawl/internal/http"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newSeeder(t *testing.T, maxURLs int) *SitemapSeeder {
	t.Helper()
	f, err := customhttp.NewFetcher(customhttp.ClientOptions{Timeout: 5 * time.Second}, testLogger())
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return NewSitemapSeeder(f, maxURLs, testLogger())
}

func newSitemapSite(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "User-agent: *\nDisallow: /private\nSitemap: "+srv.URL+"/extra-sitemap.xml\n")
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>`+srv.URL+`/pages.xml</loc></sitemap>
  <sitemap><loc>`+srv.URL+`/sitemap.xml</loc></sitemap>
</sitemapindex>`)
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>`+srv.URL+`/a</loc></url>
  <url><loc>`+srv.URL+`/b</loc></url>
</urlset>`)
	})
	mux.HandleFunc("/extra-sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<urlset><url><loc>`+srv.URL+`/private/c</loc></url><url><loc>`+srv.URL+`/a</loc></url></urlset>`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSitemapSeeder(t *testing.T) {
	srv := newSitemapSite(t)

	urls, err := newSeeder(t, 0).Seed(context.Background(), srv.URL+"/start")
	require.NoError(t, err)

	// robots.txt rules are not enforced, only its Sitemap lines are read
	assert.Equal(t, []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/private/c"}, urls)
}

func TestSitemapSeederLimit(t *testing.T) {
	srv := newSitemapSite(t)

	urls, err := newSeeder(t, 1).Seed(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/a"}, urls)
}

func TestSitemapSeederNoSitemap(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	urls, err := newSeeder(t, 0).Seed(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestSitemapSeederInvalidURL(t *testing.T) {
	_, err := newSeeder(t, 0).Seed(context.Background(), "not a url")
	assert.Error(t, err)
}
