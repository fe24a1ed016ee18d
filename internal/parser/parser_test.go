package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "https://example.com/docs", "https://example.com/docs"},
		{"trailing slash", "https://example.com/docs/", "https://example.com/docs"},
		{"root slash", "https://example.com/", "https://example.com"},
		{"no path", "https://example.com", "https://example.com"},
		{"query dropped", "https://example.com/search?q=go&page=2", "https://example.com/search"},
		{"fragment dropped", "https://example.com/docs#install", "https://example.com/docs"},
		{"case folded", "HTTPS://Example.COM/Docs", "https://example.com/Docs"},
		{"port kept", "http://localhost:8080/a/", "http://localhost:8080/a"},
		{"double slash", "https://example.com//", "https://example.com"},
		{"escaping kept", "https://example.com/r/https%3A%2F%2Fx.com", "https://example.com/r/https%3A%2F%2Fx.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/x/",
		"https://example.com//",
		"https://Example.com/a b/?x=1",
		"http://example.com:8080/p%20q/#frag",
		"https://example.com/r/http%3A%2F%2Fevil.com/",
	}

	for _, in := range inputs {
		once, err := Canonicalize(in)
		require.NoError(t, err, in)
		twice, err := Canonicalize(once)
		require.NoError(t, err, once)
		assert.Equal(t, once, twice, "canonicalize not idempotent for %q", in)
	}
}

func TestCanonicalizeTrailingSlashEquivalence(t *testing.T) {
	a, err := Canonicalize("https://a.com/x/")
	require.NoError(t, err)
	b, err := Canonicalize("https://a.com/x")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCanonicalizeMalformed(t *testing.T) {
	inputs := []string{
		"",
		"/relative/path",
		"mailto:someone@example.com",
		"javascript:void(0)",
		"http://[::1",
		"://missing-scheme.com",
	}

	for _, in := range inputs {
		_, err := Canonicalize(in)
		assert.ErrorIs(t, err, ErrMalformedURL, "input %q", in)
	}
}

func TestSameDomain(t *testing.T) {
	assert.True(t, SameDomain("https://example.com/a", "example.com"))
	assert.True(t, SameDomain("https://EXAMPLE.com/a", "example.com"))
	assert.False(t, SameDomain("https://external.com/a", "example.com"))
	assert.False(t, SameDomain("https://blog.example.com/a", "example.com"))
	assert.False(t, SameDomain("not a url", "example.com"))
}

func TestResolve(t *testing.T) {
	base := "https://example.com/docs/intro"

	assert.Equal(t, "https://example.com/docs/setup", Resolve("setup", base))
	assert.Equal(t, "https://example.com/about", Resolve("/about", base))
	assert.Equal(t, "https://other.com/x", Resolve("https://other.com/x", base))
	assert.Equal(t, "mailto:hi@example.com", Resolve("mailto:hi@example.com", base))
}

func TestBlockList(t *testing.T) {
	bl := NewBlockList([]string{"medium.com", " ", "Proxy.Example.NET"})

	tests := []struct {
		key     string
		blocked bool
	}{
		{"https://example.com/docs", false},
		{"https://medium.com/@someone", true},
		{"https://blog.medium.com/post", true},
		{"https://notmedium.com/post", false},
		{"https://proxy.example.net/go", true},
		{"https://example.com/out/http%3A%2F%2Fevil.com", true},
		{"https://example.com/out/HTTPS%3A%2F%2Fevil.com", true},
		{"https://medium.com:8443/x", true},
		{"https://example.com/r/medium.com/post", true},
		{"https://example.com/medium", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.blocked, bl.Blocked(tt.key), tt.key)
	}
}

func TestExtractAnchors(t *testing.T) {
	html := `
	<html>
		<body>
			<a href="/page1">  Page
				One </a>
			<a href="https://www.linkedin.com/company/acme" aria-label="LinkedIn" title="ignored"></a>
			<a href="https://x.com/acme" aria-label="" title="X profile"></a>
			<a href="docs/intro"></a>
			<a>no href</a>
		</body>
	</html>
	`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	anchors := ExtractAnchors(doc, "https://example.com/base/")

	require.Len(t, anchors, 4)
	assert.Equal(t, "Page One", anchors[0].Text)
	assert.Equal(t, "https://example.com/page1", anchors[0].Href)
	assert.Equal(t, "", anchors[0].Label)

	assert.Equal(t, "LinkedIn", anchors[1].Label)
	assert.Equal(t, "X profile", anchors[2].Label)

	assert.Equal(t, "", anchors[3].Text)
	assert.Equal(t, "https://example.com/base/docs/intro", anchors[3].Href)
}

func TestVisibleText(t *testing.T) {
	html := `<html><head><title>T</title></head><body><h1>Title</h1><p>Hello   <b>world</b></p><script>var x = 1;</script><ul><li>One</li><li>Two</li></ul></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	text := VisibleText(doc.Find("body"))

	assert.Equal(t, "Title\n\nHello world\n\nOne\nTwo", text)
}

func TestVisibleTextEmptyBody(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>  <script>x()</script> </body></html>`))
	require.NoError(t, err)

	assert.Equal(t, "", VisibleText(doc.Find("body")))
}

func TestExtractSitemapURLs(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
	<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
		<url><loc> https://example.com/a </loc></url>
		<url><loc>https://example.com/b</loc></url>
		<url><loc></loc></url>
	</urlset>`

	urls := ExtractSitemapURLs(xml)

	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, urls)
}
