package emails

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FromHTML returns the distinct addresses in the text of an HTML document
// and in its mailto: links, sorted.
func (e *Extractor) FromHTML(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}

	doc.Find(`a[href]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if addr, ok := mailtoAddress(href); ok {
			b.WriteByte(' ')
			b.WriteString(addr)
		}
	})

	return e.FromText(b.String()), nil
}

// writeText appends every text node under n, separated by spaces so that
// adjacent elements do not run together.
func writeText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func mailtoAddress(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if len(href) < len("mailto:") || !strings.EqualFold(href[:len("mailto:")], "mailto:") {
		return "", false
	}

	addr, _, _ := strings.Cut(href[len("mailto:"):], "?")
	if decoded, err := url.PathUnescape(addr); err == nil {
		addr = decoded
	}
	return addr, addr != ""
}
