package crawler

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

const (
	// Bloom filter settings for the enqueue pre-filter and the
	// discovered-link estimate
	bloomMinItems  = 10_000
	bloomLinksPer  = 200
	bloomFalseRate = 0.01
)

// Frontier is the FIFO queue of one crawl. It refuses URLs that were
// already enqueued and keeps an approximate count of every distinct link
// observed, including ones that are never enqueued.
type Frontier struct {
	queue []types.CrawlTask
	head  int

	// queued answers "never enqueued" without touching the map; a
	// positive is confirmed against enqueued
	queued   *bloom.BloomFilter
	enqueued map[string]struct{}

	// Bloom filter for counting distinct discovered links without
	// keeping them
	seen       *bloom.BloomFilter
	discovered int
}

// NewFrontier creates a frontier sized for a crawl of maxPages pages
func NewFrontier(maxPages int) *Frontier {
	n := uint(maxPages) * bloomLinksPer
	if n < bloomMinItems {
		n = bloomMinItems
	}
	return &Frontier{
		queued:   bloom.NewWithEstimates(n, bloomFalseRate),
		enqueued: make(map[string]struct{}),
		seen:     bloom.NewWithEstimates(n, bloomFalseRate),
	}
}

// Push appends url to the tail unless it was enqueued before
func (f *Frontier) Push(url string) bool {
	if f.queued.TestString(url) {
		if _, ok := f.enqueued[url]; ok {
			return false
		}
	}
	f.queued.AddString(url)
	f.enqueued[url] = struct{}{}
	f.queue = append(f.queue, types.CrawlTask{URL: url})
	return true
}

// Pop removes the head of the queue
func (f *Frontier) Pop() (types.CrawlTask, bool) {
	if f.head >= len(f.queue) {
		return types.CrawlTask{}, false
	}
	task := f.queue[f.head]
	f.queue[f.head] = types.CrawlTask{}
	f.head++

	// Reclaim the consumed prefix once it dominates the slice
	if f.head > 1024 && f.head*2 > len(f.queue) {
		f.queue = append([]types.CrawlTask(nil), f.queue[f.head:]...)
		f.head = 0
	}
	return task, true
}

// Len returns the number of pending tasks
func (f *Frontier) Len() int {
	return len(f.queue) - f.head
}

// Observe records a discovered link for the distinct-link estimate
func (f *Frontier) Observe(href string) {
	if !f.seen.TestAndAdd([]byte(href)) {
		f.discovered++
	}
}

// Discovered returns the approximate number of distinct links observed
func (f *Frontier) Discovered() int {
	return f.discovered
}
