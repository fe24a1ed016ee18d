package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenjaminSRussell/sitecrawl/internal/renderer"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

type fakePage struct {
	text    string
	anchors []types.ExtractedAnchor
	err     error
}

func (p *fakePage) URL() string { return "https://example.com/a" }

func (p *fakePage) Evaluate(ctx context.Context, script string, res any) error {
	if p.err != nil {
		return p.err
	}
	switch script {
	case renderer.SelectionTextScript:
		*res.(*string) = p.text
	case renderer.AnchorsScript:
		*res.(*[]types.ExtractedAnchor) = p.anchors
	}
	return nil
}

func TestVisibleText(t *testing.T) {
	text, err := VisibleText(context.Background(), &fakePage{text: "Hello\nWorld"})
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", text)
}

func TestAnchors(t *testing.T) {
	want := []types.ExtractedAnchor{{Text: "B", Href: "https://example.com/b"}}
	anchors, err := Anchors(context.Background(), &fakePage{anchors: want})
	require.NoError(t, err)
	assert.Equal(t, want, anchors)
}

func TestExtractionErrors(t *testing.T) {
	page := &fakePage{err: renderer.ErrEvaluation}

	_, err := VisibleText(context.Background(), page)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, renderer.ErrEvaluation)

	_, err = Anchors(context.Background(), page)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Contains(t, err.Error(), "https://example.com/a")
}
