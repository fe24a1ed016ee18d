package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// blockedResources are failed at the session level before they hit the network
var blockedResources = map[network.ResourceType]bool{
	network.ResourceTypeImage: true,
	network.ResourceTypeMedia: true,
	network.ResourceTypeFont:  true,
}

// ChromeOptions configures the headless Chrome renderer
type ChromeOptions struct {
	Headless          bool
	ExecPath          string
	UserAgent         string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
}

// ChromeRenderer renders pages with headless Chrome
type ChromeRenderer struct {
	opts ChromeOptions
	log  *logrus.Entry
}

// NewChromeRenderer creates a new Chrome renderer. Chrome is not started
// until Open is called.
func NewChromeRenderer(opts ChromeOptions, log *logrus.Entry) *ChromeRenderer {
	return &ChromeRenderer{opts: opts, log: log}
}

// Open launches a browser with a single tab that is reused for every page
func (cr *ChromeRenderer) Open(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cr.opts.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cr.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cr.opts.UserAgent))
	}
	if cr.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cr.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(cr.log.Debugf),
		chromedp.WithErrorf(cr.log.Debugf),
	)

	s := &chromeSession{
		opts:        cr.opts,
		log:         cr.log,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}

	chromedp.ListenTarget(tabCtx, func(ev any) {
		if ev, ok := ev.(*fetch.EventRequestPaused); ok {
			go s.handlePaused(ev)
		}
	})

	patterns := make([]*fetch.RequestPattern, 0, len(blockedResources))
	for _, rt := range []network.ResourceType{network.ResourceTypeImage, network.ResourceTypeMedia, network.ResourceTypeFont} {
		patterns = append(patterns, &fetch.RequestPattern{URLPattern: "*", ResourceType: rt})
	}

	// The first Run starts the browser, so it must use the tab context
	// itself; the caller's context can still abort the launch.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx, fetch.Enable().WithPatterns(patterns))
	stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	cr.log.Debug("Chrome session started")
	return s, nil
}

type chromeSession struct {
	opts        ChromeOptions
	log         *logrus.Entry
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

func (s *chromeSession) handlePaused(ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(s.tabCtx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(s.tabCtx, c.Target)

	var err error
	if blockedResources[ev.ResourceType] {
		err = fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
	} else {
		err = fetch.ContinueRequest(ev.RequestID).Do(execCtx)
	}
	if err != nil && s.tabCtx.Err() == nil {
		s.log.WithError(err).WithField("request", ev.Request.URL).Debug("Failed to resolve intercepted request")
	}
}

// runContext derives a context for one Run on the tab. It carries the
// optional timeout and the caller's deadline, and is canceled with ctx.
func (s *chromeSession) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, timeout)
		parent := cancel
		cancel = func() { timeoutCancel(); parent() }
	}
	if deadline, ok := ctx.Deadline(); ok {
		var deadlineCancel context.CancelFunc
		runCtx, deadlineCancel = context.WithDeadline(runCtx, deadline)
		parent := cancel
		cancel = func() { deadlineCancel(); parent() }
	}

	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url, waits for the body and then the settle delay
func (s *chromeSession) Navigate(ctx context.Context, url string) (Page, error) {
	runCtx, cancel := s.runContext(ctx, s.opts.NavigationTimeout)
	defer cancel()

	var location string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, url, s.opts.NavigationTimeout)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	if err := settle(ctx, s.opts.SettleDelay); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	if location == "" {
		location = url
	}
	return &chromePage{session: s, url: location}, nil
}

// Close closes the tab and shuts the browser down
func (s *chromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.tabCtx)
		s.tabCancel()
		s.allocCancel()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		s.log.Debug("Chrome session closed")
	})
	return err
}

type chromePage struct {
	session *chromeSession
	url     string
}

func (p *chromePage) URL() string {
	return p.url
}

// Evaluate runs script in the page, awaiting it if it returns a promise
func (p *chromePage) Evaluate(ctx context.Context, script string, res any) error {
	runCtx, cancel := p.session.runContext(ctx, 0)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.Evaluate(script, res, func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
		return params.WithAwaitPromise(true)
	}))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEvaluation, err)
	}
	return nil
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
