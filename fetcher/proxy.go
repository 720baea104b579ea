package fetcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gocolly/colly/v2"

	"dorkmail/logger"
)

var proxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// ProxyPool picks a proxy uniformly at random for each request. A nil or
// empty pool routes requests directly.
type ProxyPool struct {
	proxies []*url.URL
}

// NewProxyPool returns a pool over the given proxies.
func NewProxyPool(proxies ...*url.URL) *ProxyPool {
	return &ProxyPool{proxies: proxies}
}

// LoadProxies reads a proxy list file, one entry per line.
func LoadProxies(path string, log logger.Interface) (*ProxyPool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open proxy file: %w", err)
	}
	defer f.Close()

	return ParseProxies(f, log)
}

// ParseProxies reads one proxy per line. Bare host:port entries are taken as
// HTTP proxies. Blank lines and lines starting with '#' are ignored; anything
// unparseable is skipped with a warning.
func ParseProxies(r io.Reader, log logger.Interface) (*ProxyPool, error) {
	if log == nil {
		log = logger.NewNop()
	}

	pool := &ProxyPool{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		u, err := parseProxy(line)
		if err != nil {
			log.Warn("Skipping malformed proxy", "line", lineNo, "entry", line, "error", err)
			continue
		}
		pool.proxies = append(pool.proxies, u)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}

	return pool, nil
}

func parseProxy(entry string) (*url.URL, error) {
	if !strings.Contains(entry, "://") {
		entry = "http://" + entry
	}

	u, err := url.Parse(entry)
	if err != nil {
		return nil, err
	}
	if !proxySchemes[strings.ToLower(u.Scheme)] {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" || u.Port() == "" {
		return nil, fmt.Errorf("missing host or port")
	}
	return u, nil
}

// Len returns the number of usable proxies.
func (p *ProxyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Pick returns a random proxy, or nil when the pool is empty.
func (p *ProxyPool) Pick() *url.URL {
	if p.Len() == 0 {
		return nil
	}
	return p.proxies[rand.IntN(len(p.proxies))]
}

// Proxy satisfies colly.ProxyFunc. The chosen proxy is recorded on the
// request context so colly reports it as Request.ProxyURL.
func (p *ProxyPool) Proxy(req *http.Request) (*url.URL, error) {
	u := p.Pick()
	if u == nil {
		return nil, nil
	}

	ctx := context.WithValue(req.Context(), colly.ProxyURLKey, u.String())
	*req = *req.WithContext(ctx)
	return u, nil
}

var _ colly.ProxyFunc = (*ProxyPool)(nil).Proxy
