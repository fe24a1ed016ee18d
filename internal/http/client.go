package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

// ClientOptions configures a Fetcher
type ClientOptions struct {
	Timeout        time.Duration
	Browser        string
	UserAgent      string
	TLSFingerprint string
	Retry          RetryConfig
}

// Fetcher issues browser-like GET requests with optional retries
type Fetcher struct {
	client  *http.Client
	profile BrowserProfile
	retry   RetryConfig
	log     *logrus.Entry
}

// NewFetcher creates a fetcher with a cookie jar and, when a TLS
// fingerprint is configured, a utls dialer
func NewFetcher(opts ClientOptions, log *logrus.Entry) (*Fetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	if opts.TLSFingerprint != "" {
		dial, err := NewFingerprintDialer(opts.TLSFingerprint, dialer)
		if err != nil {
			return nil, err
		}
		transport.DialTLSContext = dial
		transport.ForceAttemptHTTP2 = false
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		profile: ProfileFor(opts.Browser, opts.UserAgent),
		retry:   opts.Retry,
		log:     log,
	}, nil
}

// Get fetches rawURL. Retryable statuses and network errors are retried
// with exponential backoff; the last response is returned as-is once
// retries are exhausted. The caller closes the body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.retry.Backoff(attempt - 1)
			f.log.WithFields(logrus.Fields{"url": rawURL, "attempt": attempt + 1, "backoff": backoff}).Debug("Retrying request")
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("request creation failed: %w", err)
		}
		f.profile.ApplyHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil || !ShouldRetry(0, err) {
				return nil, err
			}
			lastErr = &RetryableError{Err: err, Attempt: attempt + 1, MaxRetries: f.retry.MaxRetries + 1}
			continue
		}

		if ShouldRetry(resp.StatusCode, nil) && attempt < f.retry.MaxRetries {
			resp.Body.Close()
			lastErr = &RetryableError{StatusCode: resp.StatusCode, Attempt: attempt + 1, MaxRetries: f.retry.MaxRetries + 1}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// Close releases idle connections
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}
