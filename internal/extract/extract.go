// Package extract reads text and links out of a rendered page.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/BenjaminSRussell/sitecrawl/internal/renderer"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// ErrExtraction is returned when text or anchors cannot be read from a page
var ErrExtraction = errors.New("extraction failed")

// VisibleText returns the body text as a select-all copy would produce it
func VisibleText(ctx context.Context, page renderer.Page) (string, error) {
	var text string
	if err := page.Evaluate(ctx, renderer.SelectionTextScript, &text); err != nil {
		return "", fmt.Errorf("%w: text of %s: %w", ErrExtraction, page.URL(), err)
	}
	return text, nil
}

// Anchors returns every anchor with an href, in document order
func Anchors(ctx context.Context, page renderer.Page) ([]types.ExtractedAnchor, error) {
	var anchors []types.ExtractedAnchor
	if err := page.Evaluate(ctx, renderer.AnchorsScript, &anchors); err != nil {
		return nil, fmt.Errorf("%w: anchors of %s: %w", ErrExtraction, page.URL(), err)
	}
	return anchors, nil
}
