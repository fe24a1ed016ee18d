// Package ingest runs a crawl followed by indexing as a cancellable
// background task that reports progress events.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/BenjaminSRussell/sitecrawl/internal/crawler"
	"github.com/BenjaminSRussell/sitecrawl/internal/session"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// Progress milestones
const (
	PercentLaunching = 5
	PercentCrawlLow  = 10
	PercentCrawlHigh = 80
	PercentIndexing  = 90
	PercentDone      = 100
)

// Event is one progress report
type Event struct {
	Percent int
	Message string
}

// CrawlFunc runs a crawl, invoking onPage once per visited URL
type CrawlFunc func(ctx context.Context, startURL string, onPage func(types.PageEvent)) (*crawler.Result, error)

// Indexer stores crawled pages as a session
type Indexer interface {
	Create(ctx context.Context, startURL string, pages []types.PageRecord) (*session.Session, error)
}

// Ingester starts ingest tasks
type Ingester struct {
	crawl    CrawlFunc
	index    Indexer
	maxPages int
	log      *logrus.Entry
}

// New creates an ingester. maxPages must match the crawl's page cap; it
// sizes the event buffer and scales crawl progress.
func New(crawl CrawlFunc, index Indexer, maxPages int, log *logrus.Entry) *Ingester {
	if maxPages <= 0 {
		maxPages = crawler.DefaultMaxPages
	}
	return &Ingester{crawl: crawl, index: index, maxPages: maxPages, log: log}
}

// Task is one running ingest
type Task struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	session *session.Session
	stats   types.Stats
	err     error
}

// Start crawls startURL and indexes the result in the background
func (in *Ingester) Start(ctx context.Context, startURL string) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		// Every event is buffered: launch, one per visited page, indexing
		// and the final one
		events: make(chan Event, in.maxPages+4),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go t.run(ctx, in, startURL)
	return t
}

func (t *Task) run(ctx context.Context, in *Ingester, startURL string) {
	defer close(t.done)
	defer close(t.events)
	defer t.cancel()

	log := in.log.WithField("start_url", startURL)
	g, gctx := errgroup.WithContext(ctx)
	results := make(chan *crawler.Result, 1)

	g.Go(func() error {
		t.emit(PercentLaunching, "Launching browser")
		res, err := in.crawl(gctx, startURL, func(ev types.PageEvent) {
			t.emit(crawlPercent(ev.Visited, in.maxPages), fmt.Sprintf("Crawled %d/%d: %s (%s)", ev.Visited, in.maxPages, ev.URL, ev.Outcome))
		})
		if err != nil {
			return fmt.Errorf("crawl failed: %w", err)
		}
		results <- res
		return nil
	})

	g.Go(func() error {
		var res *crawler.Result
		select {
		case res = <-results:
		case <-gctx.Done():
			return gctx.Err()
		}

		t.emit(PercentIndexing, fmt.Sprintf("Indexing %d pages", len(res.Pages)))
		s, err := in.index.Create(gctx, startURL, res.Pages)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		t.mu.Lock()
		t.session = s
		t.stats = res.Stats
		t.mu.Unlock()
		return nil
	})

	err := g.Wait()

	t.mu.Lock()
	t.err = err
	s := t.session
	t.mu.Unlock()

	if err != nil {
		log.WithError(err).Warn("Ingest failed")
		t.emit(PercentDone, fmt.Sprintf("Failed: %v", err))
		return
	}
	log.WithField("pages", s.PageCount).Info("Ingest finished")
	t.emit(PercentDone, fmt.Sprintf("Done: %d pages indexed", s.PageCount))
}

func crawlPercent(visited, maxPages int) int {
	if visited > maxPages {
		visited = maxPages
	}
	return PercentCrawlLow + (PercentCrawlHigh-PercentCrawlLow)*visited/maxPages
}

func (t *Task) emit(percent int, message string) {
	select {
	case t.events <- Event{Percent: percent, Message: message}:
	default:
	}
}

// Events yields progress events; the channel is closed when the task ends
func (t *Task) Events() <-chan Event {
	return t.events
}

// Wait blocks until the task ends and returns the created session
func (t *Task) Wait() (*session.Session, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session, t.err
}

// Stats returns the crawl statistics once the task has finished
func (t *Task) Stats() types.Stats {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Cancel stops the task
func (t *Task) Cancel() {
	t.cancel()
}
