package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedURL is returned for URLs that cannot produce a canonical key
var ErrMalformedURL = errors.New("malformed URL")

// Canonicalize reduces a URL to scheme://host/path with query, fragment and
// trailing slashes removed. Scheme and host are lowercased; the path keeps
// its escaping so encoded artifacts stay visible to the block list.
func Canonicalize(raw string) (string, error) {
	u, err := parse(raw)
	if err != nil {
		return "", err
	}

	key := u.Scheme + "://" + u.Host + u.EscapedPath()
	return strings.TrimRight(key, "/"), nil
}

// Host returns the lowercased host (with port, if any) of a URL
func Host(raw string) (string, error) {
	u, err := parse(raw)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// SameDomain reports whether raw parses and its host equals domain
func SameDomain(raw, domain string) bool {
	host, err := Host(raw)
	if err != nil {
		return false
	}
	return host == domain
}

// Resolve turns href into an absolute URL relative to base. Unparseable
// input is returned unchanged so the caller can still display it.
func Resolve(href, base string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func parse(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no scheme or host", ErrMalformedURL, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u, nil
}
