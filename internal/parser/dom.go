package parser

import (
	"strings"
	"unicode"

	"github.com/BenjaminSRussell/sitecrawl/internal/types"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "caption": true, "details": true, "summary": true,
}

// paragraphElements are followed by a blank line
var paragraphElements = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// ExtractAnchors collects every anchor with an href, resolving it against
// baseURL the way a browser's a.href property would.
func ExtractAnchors(doc *goquery.Document, baseURL string) []types.ExtractedAnchor {
	anchors := make([]types.ExtractedAnchor, 0)

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		label := ""
		if v, ok := s.Attr("aria-label"); ok && v != "" {
			label = v
		} else if v, ok := s.Attr("title"); ok && v != "" {
			label = v
		}

		anchors = append(anchors, types.ExtractedAnchor{
			Text:  strings.Join(strings.Fields(s.Text()), " "),
			Href:  Resolve(href, baseURL),
			Label: label,
		})
	})

	return anchors
}

// VisibleText serializes the selection's text in document order with line
// breaks at block boundaries, approximating a select-all copy.
func VisibleText(sel *goquery.Selection) string {
	w := &textWriter{}
	for _, n := range sel.Nodes {
		w.node(n, false)
	}
	return tidyLines(w.b.String())
}

// textWriter defers inline whitespace so markup indentation never turns
// into blank lines
type textWriter struct {
	b     strings.Builder
	last  byte
	space bool
}

func (w *textWriter) node(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			w.write(n.Data)
		} else {
			w.text(n.Data)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		switch n.Data {
		case "br":
			w.write("\n")
			return
		case "td", "th":
			w.write("\t")
		case "pre":
			pre = true
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		w.newline()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, pre)
	}
	if block {
		w.newline()
		if paragraphElements[n.Data] {
			w.write("\n")
		}
	}
}

func (w *textWriter) text(s string) {
	for _, r := range s {
		if unicode.IsSpace(r) {
			w.space = true
			continue
		}
		if w.space && w.last != 0 && w.last != '\n' && w.last != '\t' {
			w.b.WriteByte(' ')
		}
		w.space = false
		w.b.WriteRune(r)
		w.last = 'x'
	}
}

func (w *textWriter) write(s string) {
	if s == "" {
		return
	}
	w.space = false
	w.b.WriteString(s)
	w.last = s[len(s)-1]
}

func (w *textWriter) newline() {
	w.space = false
	if w.last != 0 && w.last != '\n' {
		w.write("\n")
	}
}

// tidyLines trims every line and keeps at most one blank line in a row
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Trim(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// ExtractSitemapURLs extracts <loc> entries from a sitemap or sitemap index
func ExtractSitemapURLs(xmlContent string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(xmlContent))
	if err != nil {
		return nil
	}

	urls := make([]string, 0)
	doc.Find("loc").Each(func(i int, s *goquery.Selection) {
		if loc := strings.TrimSpace(s.Text()); loc != "" {
			urls = append(urls, loc)
		}
	})

	return urls
}

// IsSitemapIndex reports whether a sitemap document lists other sitemaps
func IsSitemapIndex(xmlContent string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(xmlContent))
	if err != nil {
		return false
	}
	return doc.Find("sitemapindex").Length() > 0
}
