package types

import (
	"fmt"
	"strings"
	"time"
)

// CrawlTask is one frontier entry
type CrawlTask struct {
	URL string
}

// ExtractedAnchor is a raw link record read from the rendered DOM
type ExtractedAnchor struct {
	Text  string `json:"text"`
	Href  string `json:"href"`
	Label string `json:"label"`
}

// PageRecord is one recorded page. It is never mutated after the crawler
// appends it to the output.
type PageRecord struct {
	URL         string    `json:"url"`
	Text        string    `json:"text"`
	LinksBlock  string    `json:"links_block"`
	ContentHash string    `json:"content_hash"`
	CrawledAt   time.Time `json:"crawled_at"`
}

// Document renders the page as the text blob handed to downstream indexing
func (p PageRecord) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", p.URL)
	b.WriteString("CONTENT:\n")
	b.WriteString(p.Text)
	b.WriteString("\n")
	b.WriteString(p.LinksBlock)
	return b.String()
}

// PageOutcome describes what happened to one visited key
type PageOutcome string

const (
	OutcomeRecorded  PageOutcome = "recorded"
	OutcomeDuplicate PageOutcome = "duplicate"
	OutcomeEmpty     PageOutcome = "empty"
	OutcomeBlocked   PageOutcome = "blocked"
	OutcomeFailed    PageOutcome = "failed"
)

// PageEvent is emitted once per visited key
type PageEvent struct {
	URL      string
	Outcome  PageOutcome
	Visited  int
	MaxPages int
	Err      error
}

// Stats contains crawl statistics
type Stats struct {
	Visited    int            `json:"visited"`
	Discovered int            `json:"discovered"`
	Recorded   int            `json:"recorded"`
	Duplicates int            `json:"duplicates"`
	Empty      int            `json:"empty"`
	Blocked    int            `json:"blocked"`
	OffDomain  int            `json:"off_domain"`
	Malformed  int            `json:"malformed"`
	Failures   map[string]int `json:"failures,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// FailureCount returns the total number of failed pages
func (s Stats) FailureCount() int {
	total := 0
	for _, n := range s.Failures {
		total += n
	}
	return total
}
