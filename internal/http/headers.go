package http

import (
	"net/http"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// BrowserProfile is the header set sent with plain HTTP page fetches
type BrowserProfile struct {
	UserAgent       string
	AcceptLanguage  string
	Accept          string
	SecChUA         string
	SecChUAPlatform string
	SecChUAMobile   string
	SecFetchSite    string
	SecFetchMode    string
	SecFetchDest    string
	UpgradeInsecure string
}

var browserProfiles = map[string]BrowserProfile{
	"chrome": {
		UserAgent:       DefaultUserAgent,
		AcceptLanguage:  "en-US,en;q=0.9",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		SecChUA:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecChUAPlatform: `"Linux"`,
		SecChUAMobile:   "?0",
		SecFetchSite:    "none",
		SecFetchMode:    "navigate",
		SecFetchDest:    "document",
		UpgradeInsecure: "1",
	},
	"firefox": {
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0",
		AcceptLanguage:  "en-US,en;q=0.5",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		SecFetchSite:    "none",
		SecFetchMode:    "navigate",
		SecFetchDest:    "document",
		UpgradeInsecure: "1",
	},
	"edge": {
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
		AcceptLanguage:  "en-US,en;q=0.9",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		SecChUA:         `"Microsoft Edge";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecChUAPlatform: `"Windows"`,
		SecChUAMobile:   "?0",
		SecFetchSite:    "none",
		SecFetchMode:    "navigate",
		SecFetchDest:    "document",
		UpgradeInsecure: "1",
	},
}

// ProfileFor returns the header profile for a browser name, falling back
// to Chrome. A non-empty userAgent overrides the profile's.
func ProfileFor(browser, userAgent string) BrowserProfile {
	profile, ok := browserProfiles[browser]
	if !ok {
		profile = browserProfiles["chrome"]
	}
	if userAgent != "" {
		profile.UserAgent = userAgent
	}
	return profile
}

// ApplyHeaders applies browser headers to an HTTP request. Accept-Encoding
// is left to the transport so responses are transparently decompressed.
func (p BrowserProfile) ApplyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", p.Accept)
	req.Header.Set("Accept-Language", p.AcceptLanguage)

	if p.SecChUA != "" {
		req.Header.Set("Sec-Ch-Ua", p.SecChUA)
	}
	if p.SecChUAPlatform != "" {
		req.Header.Set("Sec-Ch-Ua-Platform", p.SecChUAPlatform)
	}
	if p.SecChUAMobile != "" {
		req.Header.Set("Sec-Ch-Ua-Mobile", p.SecChUAMobile)
	}
	if p.SecFetchSite != "" {
		req.Header.Set("Sec-Fetch-Site", p.SecFetchSite)
	}
	if p.SecFetchMode != "" {
		req.Header.Set("Sec-Fetch-Mode", p.SecFetchMode)
	}
	if p.SecFetchDest != "" {
		req.Header.Set("Sec-Fetch-Dest", p.SecFetchDest)
	}
	if p.UpgradeInsecure != "" {
		req.Header.Set("Upgrade-Insecure-Requests", p.UpgradeInsecure)
	}
}
