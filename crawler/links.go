package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractLinks returns the href of every anchor in body, in document order,
// after passing it through unwrap. Only absolute http(s) URLs are kept.
func extractLinks(body []byte, unwrap func(string) string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if unwrap != nil {
			href = unwrap(href)
		}
		if isAbsoluteHTTP(href) {
			links = append(links, href)
		}
	})
	return links, nil
}

func isAbsoluteHTTP(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
