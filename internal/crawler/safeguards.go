package crawler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/BenjaminSRussell/sitecrawl/internal/extract"
	"github.com/BenjaminSRussell/sitecrawl/internal/renderer"
)

// ErrPanic marks a page whose processing panicked
var ErrPanic = errors.New("panic during page processing")

// Failure categories used in crawl stats
const (
	CategoryNavigation = "navigation"
	CategoryTimeout    = "timeout"
	CategoryExtraction = "extraction"
	CategoryCanceled   = "canceled"
	CategoryPanic      = "panic"
	CategoryOther      = "other"
)

// SafeProcess runs fn, turning a panic into an error wrapping ErrPanic
func SafeProcess(log *logrus.Entry, url string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"url":   url,
				"panic": r,
			}).Error("Recovered from panic")
			log.Debugf("Stack trace:\n%s", debug.Stack())
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return fn()
}

// Categorize maps a per-page error to its stats category
func Categorize(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	case errors.Is(err, ErrPanic):
		return CategoryPanic
	case errors.Is(err, renderer.ErrTimeout):
		return CategoryTimeout
	case errors.Is(err, renderer.ErrNavigation):
		return CategoryNavigation
	case errors.Is(err, extract.ErrExtraction), errors.Is(err, renderer.ErrEvaluation):
		return CategoryExtraction
	default:
		return CategoryOther
	}
}
