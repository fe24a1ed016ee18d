package config

import (
	"github.com/sirupsen/logrus"

	"github.com/BenjaminSRussell/sitecrawl/internal/readiness"
	"github.com/BenjaminSRussell/sitecrawl/internal/renderer"
)

// NewRenderer builds the configured renderer
func (c *Config) NewRenderer(log *logrus.Entry) renderer.Renderer {
	if c.Renderer == RendererHTTP {
		return renderer.NewHTTPRenderer(renderer.HTTPOptions{
			NavigationTimeout: c.NavigationTimeout,
			SettleDelay:       c.SettleDelay,
			UserAgent:         c.UserAgent,
			Browser:           c.Browser,
			TLSFingerprint:    c.TLSFingerprint,
		}, log.WithField("renderer", RendererHTTP))
	}

	return renderer.NewChromeRenderer(renderer.ChromeOptions{
		Headless:          c.Headless,
		ExecPath:          c.ChromePath,
		UserAgent:         c.UserAgent,
		NavigationTimeout: c.NavigationTimeout,
		SettleDelay:       c.SettleDelay,
	}, log.WithField("renderer", RendererChrome))
}

// NewDetector builds the readiness detector
func (c *Config) NewDetector(log *logrus.Entry) *readiness.Detector {
	return &readiness.Detector{
		ScrollInterval: c.Readiness.ScrollInterval,
		MaxScrollSteps: c.Readiness.MaxScrollSteps,
		PollInterval:   c.Readiness.PollInterval,
		MaxChecks:      c.Readiness.MaxChecks,
		StableRounds:   c.Readiness.StableRounds,
		Threshold:      c.Readiness.Threshold,
		Log:            log,
	}
}
