package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenjaminSRussell/sitecrawl/internal/crawler"
	"github.com/BenjaminSRussell/sitecrawl/internal/session"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

type fakeIndexer struct {
	pages []types.PageRecord
	err   error
}

func (f *fakeIndexer) Create(ctx context.Context, startURL string, pages []types.PageRecord) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pages = pages
	return &session.Session{ID: "s1", Domain: "example.com", StartURL: startURL, PageCount: len(pages)}, nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func twoPageCrawl(ctx context.Context, startURL string, onPage func(types.PageEvent)) (*crawler.Result, error) {
	onPage(types.PageEvent{URL: startURL, Outcome: types.OutcomeRecorded, Visited: 1, MaxPages: 4})
	onPage(types.PageEvent{URL: startURL + "/b", Outcome: types.OutcomeRecorded, Visited: 2, MaxPages: 4})
	return &crawler.Result{
		Pages: []types.PageRecord{{URL: startURL, Text: "A"}, {URL: startURL + "/b", Text: "B"}},
		Stats: types.Stats{Visited: 2, Recorded: 2},
	}, nil
}

func collect(t *Task) []Event {
	var events []Event
	for ev := range t.Events() {
		events = append(events, ev)
	}
	return events
}

func TestTaskSuccess(t *testing.T) {
	idx := &fakeIndexer{}
	task := New(twoPageCrawl, idx, 4, testLogger()).Start(context.Background(), "https://example.com")

	events := collect(task)
	s, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Len(t, idx.pages, 2)
	assert.Equal(t, 2, task.Stats().Recorded)

	percents := make([]int, len(events))
	for i, ev := range events {
		percents[i] = ev.Percent
	}
	assert.Equal(t, []int{5, 27, 45, 90, 100}, percents)
	assert.Equal(t, "Done: 2 pages indexed", events[len(events)-1].Message)
}

func TestTaskCrawlFailure(t *testing.T) {
	boom := errors.New("browser exploded")
	crawl := func(ctx context.Context, startURL string, onPage func(types.PageEvent)) (*crawler.Result, error) {
		return nil, boom
	}
	idx := &fakeIndexer{}

	task := New(crawl, idx, 4, testLogger()).Start(context.Background(), "https://example.com")
	events := collect(task)

	_, err := task.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, idx.pages)

	last := events[len(events)-1]
	assert.Equal(t, PercentDone, last.Percent)
	assert.Contains(t, last.Message, "browser exploded")
}

func TestTaskIndexFailure(t *testing.T) {
	idx := &fakeIndexer{err: errors.New("disk full")}

	task := New(twoPageCrawl, idx, 4, testLogger()).Start(context.Background(), "https://example.com")
	_, err := task.Wait()
	assert.ErrorContains(t, err, "indexing failed")
}

func TestTaskCancel(t *testing.T) {
	started := make(chan struct{})
	crawl := func(ctx context.Context, startURL string, onPage func(types.PageEvent)) (*crawler.Result, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	task := New(crawl, &fakeIndexer{}, 4, testLogger()).Start(context.Background(), "https://example.com")
	<-started
	task.Cancel()

	done := make(chan error, 1)
	go func() {
		_, err := task.Wait()
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("task did not stop after Cancel")
	}
}

func TestCrawlPercent(t *testing.T) {
	assert.Equal(t, 10, crawlPercent(0, 20))
	assert.Equal(t, 45, crawlPercent(10, 20))
	assert.Equal(t, 80, crawlPercent(20, 20))
	assert.Equal(t, 80, crawlPercent(25, 20))
}
