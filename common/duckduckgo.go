package common

import (
	"net/url"
	"strconv"
)

// DuckDuckGo scrapes the JavaScript-free html.duckduckgo.com result pages.
type DuckDuckGo struct {
	// BaseURL overrides the search endpoint; used by tests.
	BaseURL string
}

const duckduckgoSearchURL = "https://html.duckduckgo.com/html/"

// Result links point at the /l/ redirector, protocol-relative or absolute.
var duckduckgoRedirectPrefixes = []string{
	"//duckduckgo.com/l/?uddg=",
	"https://duckduckgo.com/l/?uddg=",
}

func (s *DuckDuckGo) Name() string { return "duckduckgo" }

func (s *DuckDuckGo) PageURL(query string, start int) string {
	base := s.BaseURL
	if base == "" {
		base = duckduckgoSearchURL
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("s", strconv.Itoa(start))
	return base + "?" + params.Encode()
}

func (s *DuckDuckGo) Unwrap(href string) string {
	for _, prefix := range duckduckgoRedirectPrefixes {
		if target, ok := unwrapParam(href, prefix); ok {
			return target
		}
	}
	return href
}
