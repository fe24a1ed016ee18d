package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", config.MaxRetries)
	}

	if config.InitialBackoff != 1*time.Second {
		t.Errorf("Expected InitialBackoff=1s, got %v", config.InitialBackoff)
	}

	if config.BackoffFactor != 2.0 {
		t.Errorf("Expected BackoffFactor=2.0, got %v", config.BackoffFactor)
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		statusCode  int
		err         error
		shouldRetry bool
	}{
		{http.StatusOK, nil, false},
		{http.StatusNotFound, nil, false},
		{http.StatusTooManyRequests, nil, true},
		{http.StatusInternalServerError, nil, true},
		{http.StatusBadGateway, nil, true},
		{http.StatusServiceUnavailable, nil, true},
		{http.StatusGatewayTimeout, nil, true},
		{0, errors.New("network error"), true},
		{0, context.Canceled, false},
	}

	for _, tt := range tests {
		result := ShouldRetry(tt.statusCode, tt.err)
		if result != tt.shouldRetry {
			t.Errorf("ShouldRetry(%d, %v): expected %v, got %v", tt.statusCode, tt.err, tt.shouldRetry, result)
		}
	}
}

func TestBackoff(t *testing.T) {
	rc := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, rc.Backoff(0))
	assert.Equal(t, 2*time.Second, rc.Backoff(1))
	assert.Equal(t, 4*time.Second, rc.Backoff(2))
	assert.Equal(t, 5*time.Second, rc.Backoff(3))
}

func TestRetryableError(t *testing.T) {
	inner := errors.New("connection reset")
	err := &RetryableError{Err: inner, Attempt: 2, MaxRetries: 3}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "attempt 2/3")

	statusErr := &RetryableError{StatusCode: 503, Attempt: 1, MaxRetries: 1}
	assert.Contains(t, statusErr.Error(), "status 503")
}

func TestProfileFor(t *testing.T) {
	chrome := ProfileFor("chrome", "")
	assert.Equal(t, DefaultUserAgent, chrome.UserAgent)

	unknown := ProfileFor("netscape", "")
	assert.Equal(t, chrome, unknown)

	custom := ProfileFor("firefox", "sitecrawl-test/1.0")
	assert.Equal(t, "sitecrawl-test/1.0", custom.UserAgent)
	assert.Empty(t, custom.SecChUA)
}

func TestApplyHeaders(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)

	ProfileFor("chrome", "").ApplyHeaders(req)

	assert.Equal(t, DefaultUserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, "navigate", req.Header.Get("Sec-Fetch-Mode"))
	assert.Empty(t, req.Header.Get("Accept-Encoding"))
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	f, err := NewFetcher(ClientOptions{
		Timeout: 5 * time.Second,
		Retry:   RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, BackoffFactor: 1},
	}, testLogger())
	require.NoError(t, err)
	defer f.Close()

	resp, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcherReturnsLastResponseWhenRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, err := NewFetcher(ClientOptions{Timeout: 5 * time.Second, Retry: NoRetry()}, testLogger())
	require.NoError(t, err)

	resp, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestNewFingerprintDialerUnknown(t *testing.T) {
	_, err := NewFingerprintDialer("mosaic", &net.Dialer{})
	assert.Error(t, err)

	dial, err := NewFingerprintDialer("chrome", &net.Dialer{})
	assert.NoError(t, err)
	assert.NotNil(t, dial)
}
