package parser

import "strings"

// encodedSchemes mark proxy/redirect URLs that embed another absolute URL
var encodedSchemes = []string{"http%3a", "https%3a"}

// BlockList matches known proxy and redirect artifacts. Blocked keys are
// marked visited without being crawled.
type BlockList struct {
	hosts []string
}

// NewBlockList creates a block list for the given hosts. A host also
// matches its subdomains.
func NewBlockList(hosts []string) *BlockList {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			normalized = append(normalized, h)
		}
	}
	return &BlockList{hosts: normalized}
}

// Blocked reports whether a canonical key should be skipped
func (b *BlockList) Blocked(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range encodedSchemes {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	host, err := Host(key)
	if err != nil {
		return false
	}
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	path := pathOf(lower)

	for _, h := range b.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
		// proxied copies such as /r/medium.com/post
		if strings.Contains(path, h) {
			return true
		}
	}
	return false
}

func pathOf(key string) string {
	i := strings.Index(key, "://")
	if i == -1 {
		return ""
	}
	rest := key[i+3:]
	if j := strings.Index(rest, "/"); j != -1 {
		return rest[j:]
	}
	return ""
}
