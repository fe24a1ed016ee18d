// Package readiness decides when a rendered page has finished loading.
package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BenjaminSRussell/sitecrawl/internal/renderer"
)

// Detector scrolls a page to trigger lazy loading and then polls its text
// length until it converges
type Detector struct {
	ScrollInterval time.Duration
	MaxScrollSteps int
	PollInterval   time.Duration
	MaxChecks      int
	StableRounds   int
	Threshold      int

	Log *logrus.Entry
}

// Default returns a detector with the stock timings
func Default(log *logrus.Entry) *Detector {
	return &Detector{
		ScrollInterval: 200 * time.Millisecond,
		MaxScrollSteps: 200,
		PollInterval:   700 * time.Millisecond,
		MaxChecks:      10,
		StableRounds:   3,
		Threshold:      100,
		Log:            log,
	}
}

// Wait scrolls the page to the bottom and then waits for its content to
// stabilize. Neither step fails the page when its budget runs out; only
// script errors and cancellation are returned.
func (d *Detector) Wait(ctx context.Context, page renderer.Page) error {
	if err := d.Scroll(ctx, page); err != nil {
		return err
	}
	_, err := d.WaitStable(ctx, page)
	return err
}

// Scroll advances the page one increment at a time until the position
// reaches the document height
func (d *Detector) Scroll(ctx context.Context, page renderer.Page) error {
	y := 0
	for step := 0; d.MaxScrollSteps <= 0 || step < d.MaxScrollSteps; step++ {
		var height int
		if err := page.Evaluate(ctx, renderer.ScrollStepScript, &height); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		y += renderer.ScrollIncrement
		if y >= height {
			return nil
		}
		if err := sleep(ctx, d.ScrollInterval); err != nil {
			return err
		}
	}

	d.logger().WithField("url", page.URL()).Debug("Scroll step budget exhausted")
	return nil
}

// WaitStable polls the text length every PollInterval. A poll whose length
// differs from the previous one by less than Threshold is a stable round;
// any larger change resets the count. It reports whether StableRounds
// consecutive stable rounds were seen before MaxChecks polls.
func (d *Detector) WaitStable(ctx context.Context, page renderer.Page) (bool, error) {
	lastLen := 0
	stable := 0

	for check := 0; check < d.MaxChecks; check++ {
		if err := sleep(ctx, d.PollInterval); err != nil {
			return false, err
		}

		var length int
		if err := page.Evaluate(ctx, renderer.TextLengthScript, &length); err != nil {
			return false, fmt.Errorf("stability poll: %w", err)
		}

		if abs(length-lastLen) < d.Threshold {
			stable++
			if stable >= d.StableRounds {
				return true, nil
			}
		} else {
			stable = 0
		}
		lastLen = length
	}

	d.logger().WithFields(logrus.Fields{
		"url":    page.URL(),
		"checks": d.MaxChecks,
	}).Debug("Page did not stabilize, continuing")
	return false, nil
}

func (d *Detector) logger() *logrus.Entry {
	if d.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return d.Log
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sleep(ctx context.Context, d time.Duration) error {
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
