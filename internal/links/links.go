// Package links formats extracted anchors as a readable block.
package links

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// Header starts every formatted block
const Header = "\n\nLinks Found:\n"

// DisplayText picks the text shown for a link: its visible text, then its
// label, then a name derived from the link's host. It returns "" when none
// can be found.
func DisplayText(a types.ExtractedAnchor) string {
	if text := strings.TrimSpace(a.Text); text != "" {
		return text
	}
	if label := strings.TrimSpace(a.Label); label != "" {
		return label
	}
	return hostName(a.Href)
}

// hostName turns www.linkedin.com into Linkedin
func hostName(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return capitalize(host)
	}

	name := parts[len(parts)-2]
	if name == "www" || name == "web" {
		if len(parts) < 3 {
			return ""
		}
		name = parts[len(parts)-3]
	}
	return capitalize(name)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Format renders the links block for one page. Links without display text
// are left out and repeated entries are written once.
func Format(anchors []types.ExtractedAnchor) string {
	var b strings.Builder
	b.WriteString(Header)

	seen := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		text := DisplayText(a)
		if text == "" || a.Href == "" {
			continue
		}
		line := fmt.Sprintf("- [%s](%s)\n", text, a.Href)
		if seen[line] {
			continue
		}
		seen[line] = true
		b.WriteString(line)
	}

	return b.String()
}
