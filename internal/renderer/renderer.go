package renderer

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLaunch is returned when the rendering environment cannot start
	ErrLaunch = errors.New("renderer launch failed")
	// ErrNavigation is returned when a page cannot be loaded
	ErrNavigation = errors.New("navigation failed")
	// ErrTimeout is returned when navigation exceeds its deadline
	ErrTimeout = errors.New("navigation timed out")
	// ErrEvaluation is returned when a script cannot be run against the page
	ErrEvaluation = errors.New("script evaluation failed")
	// ErrUnsupportedScript is returned by renderers that only understand
	// the crawler's own scripts
	ErrUnsupportedScript = errors.New("unsupported script")
)

// Renderer starts browsing sessions
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one browsing context reused for every page of a crawl.
// It is owned by a single crawl and must be closed by it.
type Session interface {
	Navigate(ctx context.Context, url string) (Page, error)
	Close() error
}

// Page is the current document of a session after navigation
type Page interface {
	URL() string
	Evaluate(ctx context.Context, script string, res any) error
}

// ScrollIncrement is the distance scrolled per step, in pixels
const ScrollIncrement = 500

// Scripts understood by every renderer.
var (
	// ScrollStepScript scrolls one increment and returns the document height
	ScrollStepScript = fmt.Sprintf(`(() => { window.scrollBy(0, %d); return document.body ? document.body.scrollHeight : 0; })()`, ScrollIncrement)
)

const (
	// TextLengthScript returns the length of the rendered body text
	TextLengthScript = `document.body ? document.body.innerText.length : 0`

	// SelectionTextScript selects the whole body and returns the selection
	// as the browser would copy it
	SelectionTextScript = `(() => {
	if (!document.body) { return ''; }
	const sel = window.getSelection();
	const range = document.createRange();
	range.selectNodeContents(document.body);
	sel.removeAllRanges();
	sel.addRange(range);
	const text = sel.toString();
	sel.removeAllRanges();
	return text;
})()`

	// AnchorsScript lists every anchor with an href
	AnchorsScript = `Array.from(document.querySelectorAll('a[href]')).map(a => ({
	text: (a.innerText || '').trim(),
	href: a.href,
	label: a.getAttribute('aria-label') || a.getAttribute('title') || ''
}))`
)
