// Package fetcher performs single HTTP GETs for the crawler through a colly
// collector, rotating User-Agents and proxies per request.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/net/publicsuffix"

	"dorkmail/defaults"
	"dorkmail/logger"
	"dorkmail/pinning"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

const pageCtxKey = "page"

var (
	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork is returned for any other transport failure.
	ErrNetwork = errors.New("network error")
)

// DefaultUserAgents are common desktop browsers.
var DefaultUserAgents = defaults.UserAgents()

// Page is the outcome of a completed HTTP exchange. Non-200 statuses are
// reported here rather than as errors. When the server declared a charset,
// Body has already been decoded to UTF-8 and ContentType says so.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	// Proxy is the proxy the request went through, empty when direct.
	Proxy string
}

// OK reports whether the page was served with status 200.
func (p *Page) OK() bool {
	return p.StatusCode == http.StatusOK
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Options configures a Colly fetcher.
type Options struct {
	// Connector performs TLS for direct connections and supplies the
	// handshake configuration for proxied ones. Defaults to the system
	// trust store.
	Connector pinning.Connector
	Timeout   time.Duration
	// UserAgents is the rotation pool. Defaults to DefaultUserAgents.
	UserAgents []string
	// Proxies is optional; nil or empty means direct connections.
	Proxies *ProxyPool
	Logger  logger.Interface
}

// Colly is a Fetcher backed by a synchronous colly collector.
type Colly struct {
	collector  *colly.Collector
	userAgents []string
	log        logger.Interface
}

// New builds a Colly fetcher from opts.
func New(opts Options) (*Colly, error) {
	if opts.Connector == nil {
		opts.Connector = pinning.NewStandardTrustStore()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = DefaultUserAgents
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	f := &Colly{
		userAgents: opts.UserAgents,
		log:        opts.Logger,
	}

	// Deduplication belongs to the crawler, so colly must allow revisits.
	f.collector = colly.NewCollector(
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	f.collector.SetCookieJar(jar)
	f.collector.WithTransport(&http.Transport{
		TLSClientConfig:       opts.Connector.ClientConfig(),
		DialTLSContext:        pinning.DialTLSContext(opts.Connector),
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   opts.Timeout,
		ExpectContinueTimeout: time.Second,
	})
	f.collector.SetRequestTimeout(opts.Timeout)
	if opts.Proxies.Len() > 0 {
		f.collector.SetProxyFunc(opts.Proxies.Proxy)
		opts.Logger.Info("Proxy rotation enabled", "proxy_count", opts.Proxies.Len())
	}

	f.collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", f.userAgent())
	})
	f.collector.OnResponse(func(r *colly.Response) {
		page := &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
			Proxy:      r.Request.ProxyURL,
		}
		if r.Headers != nil {
			page.ContentType = decodedContentType(r.Headers.Get("Content-Type"))
		}
		r.Ctx.Put(pageCtxKey, page)
	})

	return f, nil
}

func (f *Colly) userAgent() string {
	return f.userAgents[rand.IntN(len(f.userAgents))]
}

// Fetch issues one GET. Transport failures are classified as ErrTimeout or
// ErrNetwork; a pin mismatch stays detectable through errors.Is.
func (f *Colly) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	start := time.Now()
	err := f.collector.Request(http.MethodGet, rawURL, nil, reqCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", rawURL, classify(err), err)
	}

	page, ok := reqCtx.GetAny(pageCtxKey).(*Page)
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w: no response", rawURL, ErrNetwork)
	}

	f.log.Debug("Response received",
		"url", rawURL,
		"status", page.StatusCode,
		"bytes", len(page.Body),
		"proxy", page.Proxy,
		"duration", time.Since(start),
	)
	return page, nil
}

// decodedContentType rewrites a declared non-UTF-8 charset to utf-8. colly
// transcodes such bodies before OnResponse runs, so the original label no
// longer describes the bytes.
func decodedContentType(contentType string) string {
	lower := strings.ToLower(contentType)
	if !strings.Contains(lower, "charset") ||
		strings.Contains(lower, "utf-8") || strings.Contains(lower, "utf8") {
		return contentType
	}
	for _, binary := range []string{"image/", "video/", "audio/", "font/"} {
		if strings.Contains(lower, binary) {
			return contentType
		}
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "text/html; charset=utf-8"
	}
	params["charset"] = "utf-8"
	return mime.FormatMediaType(mediaType, params)
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrNetwork
}
