package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	customhttp "github.com/BenjaminSRussell/sitecrawl/internal/http"
	"github.com/BenjaminSRussell/sitecrawl/internal/parser"
)

// maxBodyBytes caps the HTML read for one page
const maxBodyBytes = 10 << 20

// HTTPOptions configures the static HTML renderer
type HTTPOptions struct {
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	UserAgent         string
	Browser           string
	TLSFingerprint    string
}

// HTTPRenderer fetches raw HTML without running scripts and answers the
// crawler's scripts from the parsed document. Sub-resources are never
// requested.
type HTTPRenderer struct {
	opts HTTPOptions
	log  *logrus.Entry
}

// NewHTTPRenderer creates a static renderer
func NewHTTPRenderer(opts HTTPOptions, log *logrus.Entry) *HTTPRenderer {
	return &HTTPRenderer{opts: opts, log: log}
}

// Open creates the HTTP client shared by every page of the session
func (hr *HTTPRenderer) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	fetcher, err := customhttp.NewFetcher(customhttp.ClientOptions{
		Timeout:        hr.opts.NavigationTimeout,
		Browser:        hr.opts.Browser,
		UserAgent:      hr.opts.UserAgent,
		TLSFingerprint: hr.opts.TLSFingerprint,
		Retry:          customhttp.NoRetry(),
	}, hr.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	return &httpSession{opts: hr.opts, fetcher: fetcher, log: hr.log}, nil
}

type httpSession struct {
	opts    HTTPOptions
	fetcher *customhttp.Fetcher
	log     *logrus.Entry
}

func (s *httpSession) Navigate(ctx context.Context, url string) (Page, error) {
	resp, err := s.fetcher.Get(ctx, url)
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, url, s.opts.NavigationTimeout)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrNavigation, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, url, s.opts.NavigationTimeout)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	if err := settle(ctx, s.opts.SettleDelay); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &staticPage{url: final, doc: doc}, nil
}

func (s *httpSession) Close() error {
	s.fetcher.Close()
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type staticPage struct {
	url string
	doc *goquery.Document
}

func (p *staticPage) URL() string {
	return p.url
}

// Evaluate answers the scripts the crawler issues. A static document has
// no scroll extent, so scrolling reports a zero height.
func (p *staticPage) Evaluate(ctx context.Context, script string, res any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	var value any
	switch script {
	case ScrollStepScript:
		value = 0
	case TextLengthScript:
		value = utf16Len(parser.VisibleText(p.doc.Find("body")))
	case SelectionTextScript:
		value = parser.VisibleText(p.doc.Find("body"))
	case AnchorsScript:
		value = parser.ExtractAnchors(p.doc, p.url)
	default:
		return fmt.Errorf("%w: %w", ErrEvaluation, ErrUnsupportedScript)
	}

	if res == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEvaluation, err)
	}
	if err := json.Unmarshal(raw, res); err != nil {
		return fmt.Errorf("%w: %w", ErrEvaluation, err)
	}
	return nil
}

// utf16Len counts UTF-16 code units, the unit of a browser's
// innerText.length
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}
