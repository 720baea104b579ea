package common

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ResultsPerPage is the pagination step of every supported engine.
const ResultsPerPage = 10

// SearchEngine describes a search provider's result pages.
type SearchEngine interface {
	// Name identifies the engine in configuration and logs.
	Name() string
	// PageURL returns the results page for query starting at offset start.
	PageURL(query string, start int) string
	// Unwrap strips the engine's redirect wrapper from a result href. Links
	// without the wrapper are returned unchanged.
	Unwrap(href string) string
}

// Dork builds the query that finds pages of domain mentioning its addresses.
func Dork(domain string) string {
	return fmt.Sprintf(`site:%s intext:"@%s"`, domain, domain)
}

// NewSearchEngine returns the engine registered under name.
func NewSearchEngine(name string) (SearchEngine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "google":
		return &Google{}, nil
	case "duckduckgo", "ddg":
		return &DuckDuckGo{}, nil
	default:
		return nil, fmt.Errorf("unknown search engine %q", name)
	}
}

// unwrapParam returns the value following prefix up to the next '&',
// query-unescaped. ok is false when href does not carry the prefix.
func unwrapParam(href, prefix string) (string, bool) {
	rest, found := strings.CutPrefix(href, prefix)
	if !found {
		return href, false
	}

	target, _, _ := strings.Cut(rest, "&")
	if decoded, err := url.QueryUnescape(target); err == nil {
		return decoded, true
	}
	return target, true
}

// Google scrapes www.google.com result pages.
type Google struct {
	// BaseURL overrides the search endpoint; used by tests.
	BaseURL string
}

const (
	googleSearchURL      = "https://www.google.com/search"
	googleRedirectPrefix = "/url?q="
)

func (g *Google) Name() string { return "google" }

func (g *Google) PageURL(query string, start int) string {
	base := g.BaseURL
	if base == "" {
		base = googleSearchURL
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("start", strconv.Itoa(start))
	return base + "?" + params.Encode()
}

func (g *Google) Unwrap(href string) string {
	target, _ := unwrapParam(href, googleRedirectPrefix)
	return target
}
