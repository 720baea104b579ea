// Package emails pulls addresses belonging to one domain out of harvested
// pages.
package emails

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"

	"dorkmail/logger"
)

// ErrEmptyDomain is returned by NewExtractor for a blank domain.
var ErrEmptyDomain = errors.New("domain is empty")

// EmailDetails is an address and the artifacts it appeared in.
type EmailDetails struct {
	Email   string
	Sources []string
}

// Extractor matches addresses of a single domain. It is safe for concurrent
// use.
type Extractor struct {
	domain string
	re     *regexp.Regexp
	log    logger.Interface
}

// NewExtractor builds an extractor for domain, e.g. "example.com". Only
// addresses whose domain part is exactly domain are matched; subdomains and
// look-alikes such as notexample.com are not. The domain part is matched
// case-insensitively and lowercased, but the local part keeps its case, so
// User@example.com and user@example.com are reported as two addresses.
func NewExtractor(domain string, log logger.Interface) (*Extractor, error) {
	domain = strings.ToLower(strings.Trim(strings.TrimSpace(domain), "@."))
	if domain == "" {
		return nil, ErrEmptyDomain
	}
	if log == nil {
		log = logger.NewNop()
	}

	pattern := `(?i)\b[A-Za-z0-9._%+-]+@` + regexp.QuoteMeta(domain) + `\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern for %q: %w", domain, err)
	}

	return &Extractor{domain: domain, re: re, log: log}, nil
}

// Domain returns the normalized domain.
func (e *Extractor) Domain() string {
	return e.domain
}

// FromText returns the distinct addresses in text, sorted.
func (e *Extractor) FromText(text string) []string {
	seen := make(map[string]struct{})
	for _, loc := range e.re.FindAllStringIndex(text, -1) {
		if continuesHost(text[loc[1]:]) {
			continue
		}
		seen[e.normalize(text[loc[0]:loc[1]])] = struct{}{}
	}

	found := make([]string, 0, len(seen))
	for addr := range seen {
		found = append(found, addr)
	}
	sort.Strings(found)
	return found
}

// continuesHost reports whether rest carries on the hostname, as in
// user@example.com.evil.org or user@example.com-mail.net.
func continuesHost(rest string) bool {
	if rest == "" {
		return false
	}
	if rest[0] == '-' {
		return true
	}
	return rest[0] == '.' && len(rest) > 1 && isAlnum(rest[1])
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func (e *Extractor) normalize(match string) string {
	at := strings.LastIndexByte(match, '@')
	return match[:at+1] + e.domain
}

// Extract reads every artifact at paths and returns the addresses found,
// sorted by address. Unreadable artifacts are logged and skipped.
func (e *Extractor) Extract(paths []string) []EmailDetails {
	sources := make(map[string][]string)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			e.log.Warn("Skipping unreadable artifact", "path", path, "error", err)
			continue
		}
		found, err := e.FromHTML(f)
		f.Close()
		if err != nil {
			e.log.Warn("Skipping unparseable artifact", "path", path, "error", err)
			continue
		}

		for _, addr := range found {
			if !slices.Contains(sources[addr], path) {
				sources[addr] = append(sources[addr], path)
			}
		}
	}

	result := make([]EmailDetails, 0, len(sources))
	for addr, srcs := range sources {
		sort.Strings(srcs)
		result = append(result, EmailDetails{Email: addr, Sources: srcs})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })

	e.log.Info("Emails extracted", "artifacts", len(paths), "emails", len(result))
	return result
}

// Addresses returns just the addresses of details, in order.
func Addresses(details []EmailDetails) []string {
	addrs := make([]string, 0, len(details))
	for _, d := range details {
		addrs = append(addrs, d.Email)
	}
	return addrs
}
