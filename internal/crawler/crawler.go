package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BenjaminSRussell/sitecrawl/internal/extract"
	"github.com/BenjaminSRussell/sitecrawl/internal/links"
	"github.com/BenjaminSRussell/sitecrawl/internal/parser"
	"github.com/BenjaminSRussell/sitecrawl/internal/readiness"
	"github.com/BenjaminSRussell/sitecrawl/internal/renderer"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// DefaultMaxPages caps a crawl when no limit is configured
const DefaultMaxPages = 20

// ErrInitialization is returned when the rendering environment cannot start
var ErrInitialization = errors.New("crawler initialization failed")

// State of one crawl invocation
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Seeder supplies extra start URLs, e.g. from a sitemap
type Seeder interface {
	Seed(ctx context.Context, startURL string) ([]string, error)
}

// Options configures a Crawler
type Options struct {
	MaxPages             int
	BlockedHosts         []string
	FollowDuplicateLinks bool
	Detector             *readiness.Detector
	Seeder               Seeder
	OnPage               func(types.PageEvent)
}

// Result is the output of one crawl
type Result struct {
	Pages []types.PageRecord
	Stats types.Stats
}

// Documents returns the text handed downstream for each page, in
// discovery order
func (r *Result) Documents() []string {
	docs := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		docs[i] = p.Document()
	}
	return docs
}

// Crawler performs bounded breadth-first crawls of a single site
type Crawler struct {
	renderer renderer.Renderer
	opts     Options
	blocked  *parser.BlockList
	log      *logrus.Entry
}

// New creates a crawler rendering pages with r
func New(r renderer.Renderer, opts Options, log *logrus.Entry) *Crawler {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Detector == nil {
		opts.Detector = readiness.Default(log)
	}
	return &Crawler{
		renderer: r,
		opts:     opts,
		blocked:  parser.NewBlockList(opts.BlockedHosts),
		log:      log,
	}
}

// Crawl visits up to MaxPages pages of the start URL's host and returns
// the distinct, non-empty pages in discovery order. Per-page failures
// are logged and counted; only a renderer that cannot start fails the
// crawl. On cancellation the pages collected so far are returned along
// with the context error.
func (c *Crawler) Crawl(ctx context.Context, startURL string) (*Result, error) {
	start, err := parser.Canonicalize(startURL)
	if err != nil {
		return nil, fmt.Errorf("start URL: %w", err)
	}
	domain, err := parser.Host(start)
	if err != nil {
		return nil, fmt.Errorf("start URL: %w", err)
	}

	run := &crawl{
		c:        c,
		log:      c.log.WithField("domain", domain),
		domain:   domain,
		frontier: NewFrontier(c.opts.MaxPages),
		visited:  make(map[string]struct{}),
		hashes:   make(map[string]struct{}),
		started:  time.Now(),
	}
	run.stats.Failures = make(map[string]int)

	session, err := c.renderer.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			run.log.WithError(err).Warn("Failed to close browser session")
		}
	}()

	run.frontier.Push(start)
	run.seed(ctx, startURL)

	return run.loop(ctx, session)
}

// crawl holds the state of one invocation
type crawl struct {
	c        *Crawler
	log      *logrus.Entry
	state    State
	domain   string
	frontier *Frontier
	visited  map[string]struct{}
	hashes   map[string]struct{}
	pages    []types.PageRecord
	stats    types.Stats
	started  time.Time
}

func (r *crawl) transition(to State) {
	r.log.WithFields(logrus.Fields{"from": r.state, "to": to}).Debug("Crawl state")
	r.state = to
}

func (r *crawl) seed(ctx context.Context, startURL string) {
	if r.c.opts.Seeder == nil {
		return
	}
	urls, err := r.c.opts.Seeder.Seed(ctx, startURL)
	if err != nil {
		r.log.WithError(err).Warn("Seeding failed, continuing with start URL only")
		return
	}
	added := 0
	for _, u := range urls {
		if r.frontier.Push(u) {
			added++
		}
	}
	r.log.WithField("seeds", added).Info("Seeded frontier")
}

func (r *crawl) loop(ctx context.Context, session renderer.Session) (*Result, error) {
	r.transition(StateRunning)
	maxPages := r.c.opts.MaxPages

	r.log.WithField("max_pages", maxPages).Info("Starting crawl")

	for r.frontier.Len() > 0 && len(r.visited) < maxPages {
		if err := ctx.Err(); err != nil {
			r.log.WithError(err).Warn("Crawl canceled")
			return r.finish(), err
		}

		task, _ := r.frontier.Pop()

		key, err := parser.Canonicalize(task.URL)
		if err != nil {
			r.stats.Malformed++
			r.log.WithField("url", task.URL).Debug("Skipping malformed URL")
			continue
		}
		if !r.inScope(key) {
			r.stats.OffDomain++
			r.log.WithField("url", key).Debug("Skipping off-domain URL")
			continue
		}

		if r.c.blocked.Blocked(key) {
			if _, ok := r.visited[key]; !ok {
				r.visited[key] = struct{}{}
				r.stats.Blocked++
				r.log.WithField("url", key).Info("Skipping external/proxy URL")
				r.emit(key, types.OutcomeBlocked, nil)
			}
			continue
		}

		if _, ok := r.visited[key]; ok {
			continue
		}
		r.visited[key] = struct{}{}

		r.log.WithField("url", key).Info("Crawling")

		var (
			outcome    types.PageOutcome
			discovered []string
		)
		err = SafeProcess(r.log, key, func() error {
			var perr error
			outcome, discovered, perr = r.process(ctx, session, key)
			return perr
		})
		if err != nil {
			category := Categorize(err)
			r.stats.Failures[category]++
			r.log.WithFields(logrus.Fields{
				"url":      key,
				"category": category,
			}).WithError(err).Warn("Failed to crawl page")
			r.emit(key, types.OutcomeFailed, err)
			continue
		}

		r.emit(key, outcome, nil)
		r.enqueue(discovered)
	}

	return r.finish(), nil
}

// process renders one page and records it. It returns the same-domain
// links to enqueue.
func (r *crawl) process(ctx context.Context, session renderer.Session, key string) (types.PageOutcome, []string, error) {
	page, err := session.Navigate(ctx, key)
	if err != nil {
		return "", nil, err
	}

	if err := r.c.opts.Detector.Wait(ctx, page); err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("%w: readiness of %s: %w", extract.ErrExtraction, key, err)
	}

	text, err := extract.VisibleText(ctx, page)
	if err != nil {
		return "", nil, err
	}

	anchors, err := extract.Anchors(ctx, page)
	if err != nil {
		return "", nil, err
	}

	// Empty pages are never hashed
	if strings.TrimSpace(text) == "" {
		r.stats.Empty++
		r.log.WithField("url", key).Debug("Page has no text")
		return types.OutcomeEmpty, r.sameDomain(anchors), nil
	}

	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])

	if _, dup := r.hashes[hash]; dup {
		r.stats.Duplicates++
		r.log.WithField("url", key).Info("Skipping duplicate content")
		if !r.c.opts.FollowDuplicateLinks {
			return types.OutcomeDuplicate, nil, nil
		}
		return types.OutcomeDuplicate, r.sameDomain(anchors), nil
	}
	r.hashes[hash] = struct{}{}

	r.pages = append(r.pages, types.PageRecord{
		URL:         key,
		Text:        text,
		LinksBlock:  links.Format(anchors),
		ContentHash: hash,
		CrawledAt:   time.Now(),
	})
	r.stats.Recorded++

	return types.OutcomeRecorded, r.sameDomain(anchors), nil
}

// sameDomain returns the canonical keys of in-scope anchors
func (r *crawl) sameDomain(anchors []types.ExtractedAnchor) []string {
	keys := make([]string, 0, len(anchors))
	for _, a := range anchors {
		r.frontier.Observe(a.Href)
		key, err := parser.Canonicalize(a.Href)
		if err != nil || !r.inScope(key) {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (r *crawl) enqueue(keys []string) {
	for _, key := range keys {
		if _, ok := r.visited[key]; ok {
			continue
		}
		r.frontier.Push(key)
	}
}

// inScope reports whether a canonical key is a web page on the crawl host
func (r *crawl) inScope(key string) bool {
	if !strings.HasPrefix(key, "http://") && !strings.HasPrefix(key, "https://") {
		return false
	}
	return parser.SameDomain(key, r.domain)
}

func (r *crawl) emit(key string, outcome types.PageOutcome, err error) {
	if r.c.opts.OnPage == nil {
		return
	}
	r.c.opts.OnPage(types.PageEvent{
		URL:      key,
		Outcome:  outcome,
		Visited:  len(r.visited),
		MaxPages: r.c.opts.MaxPages,
		Err:      err,
	})
}

func (r *crawl) finish() *Result {
	r.transition(StateDone)
	r.stats.Visited = len(r.visited)
	r.stats.Discovered = r.frontier.Discovered()
	r.stats.Duration = time.Since(r.started)

	r.log.WithFields(logrus.Fields{
		"visited":    r.stats.Visited,
		"recorded":   r.stats.Recorded,
		"duplicates": r.stats.Duplicates,
		"failures":   r.stats.FailureCount(),
		"duration":   r.stats.Duration.Round(time.Millisecond),
	}).Info("Crawl finished")

	return &Result{Pages: r.pages, Stats: r.stats}
}
