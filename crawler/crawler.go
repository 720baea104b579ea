// Package crawler walks search-engine result pages and saves every result
// page, plus the pages it links to, until a quota of artifacts is reached.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"dorkmail/common"
	"dorkmail/fetcher"
	"dorkmail/logger"
	"dorkmail/pinning"
)

// ErrInvalidQuota is returned when maxResults is not positive.
var ErrInvalidQuota = errors.New("max results must be positive")

// Link depth of a saved page.
const (
	DepthResult = 0
	DepthLinked = 1
)

// Artifact is a page that was fetched with status 200 and persisted.
type Artifact struct {
	Seq   int
	URL   string
	Path  string
	Depth int
}

// Stats counts what happened during a crawl.
type Stats struct {
	SearchPages int
	Requests    int
	Saved       int
	Duplicates  int
	NonOK       int
	FetchErrors int
	SinkErrors  int
	Duration    time.Duration
}

// Report is the outcome of Crawl.
type Report struct {
	SessionID string
	Artifacts []Artifact
	Stats     Stats
}

// Paths returns the artifact file paths in save order.
func (r *Report) Paths() []string {
	paths := make([]string, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		paths = append(paths, a.Path)
	}
	return paths
}

// Options configures a Crawler.
type Options struct {
	Fetcher fetcher.Fetcher
	// Engine defaults to Google.
	Engine common.SearchEngine
	// Pacer defaults to DefaultDelay.
	Pacer  Pacer
	Logger logger.Interface
}

// Crawler runs sequential crawl sessions. It holds no per-session state, so
// one Crawler may serve several Crawl calls.
type Crawler struct {
	fetcher fetcher.Fetcher
	engine  common.SearchEngine
	pacer   Pacer
	log     logger.Interface
}

func New(opts Options) (*Crawler, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("crawler: fetcher is required")
	}
	if opts.Engine == nil {
		opts.Engine = &common.Google{}
	}
	if opts.Pacer == nil {
		opts.Pacer = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &Crawler{
		fetcher: opts.Fetcher,
		engine:  opts.Engine,
		pacer:   opts.Pacer,
		log:     opts.Logger,
	}, nil
}

// session is the state of one Crawl call.
type session struct {
	*Crawler

	log        logger.Interface
	sink       Sink
	maxResults int
	visited    *VisitedSet

	// mu guards report. The quota check and the artifact append happen
	// under it together.
	mu       sync.Mutex
	report   *Report
	requests int
}

// Crawl pages through the results for query, saving each result page and
// its one-hop links to sink until maxResults artifacts exist or the results
// run out. Fetch failures and sink failures are logged and skipped. A
// certificate pin mismatch or a cancelled context stops the crawl; the
// partial report is returned alongside the error.
func (c *Crawler) Crawl(ctx context.Context, query string, maxResults int, sink Sink) (*Report, error) {
	if maxResults < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuota, maxResults)
	}
	if sink == nil {
		return nil, errors.New("crawler: sink is required")
	}

	id := uuid.New().String()
	s := &session{
		Crawler:    c,
		log:        c.log.With("session_id", id, "engine", c.engine.Name()),
		sink:       sink,
		maxResults: maxResults,
		visited:    NewVisitedSet(),
		report:     &Report{SessionID: id},
	}

	started := time.Now()
	err := s.run(ctx, query)
	s.report.Stats.Duration = time.Since(started)

	s.log.Info("Crawl finished",
		"artifacts", len(s.report.Artifacts),
		"requests", s.report.Stats.Requests,
		"search_pages", s.report.Stats.SearchPages,
		"duration", s.report.Stats.Duration,
	)
	return s.report, err
}

func (s *session) run(ctx context.Context, query string) error {
	s.log.Info("Crawl started", "query", query, "max_results", s.maxResults)

	var previous []string
	for start := 0; !s.quotaMet(); start += common.ResultsPerPage {
		links, err := s.searchPage(ctx, query, start)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			s.log.Info("Search results exhausted", "start", start)
			return nil
		}
		// Engines past their last page keep serving it.
		if slices.Equal(links, previous) {
			s.log.Info("Search results page repeated", "start", start)
			return nil
		}
		previous = links

		for _, link := range links {
			if s.quotaMet() {
				break
			}
			if !s.visited.MarkIfNew(link) {
				s.bump(func(st *Stats) { st.Duplicates++ })
				continue
			}

			page, err := s.visit(ctx, link, DepthResult)
			if err != nil {
				return err
			}
			if page == nil {
				continue
			}
			if err := s.expand(ctx, page); err != nil {
				return err
			}
		}
	}
	return nil
}

// searchPage fetches one results page and returns its unwrapped links. A
// nil slice with a nil error means the results have ended.
func (s *session) searchPage(ctx context.Context, query string, start int) ([]string, error) {
	pageURL := s.engine.PageURL(query, start)

	page, err := s.get(ctx, pageURL)
	if err != nil || page == nil {
		return nil, err
	}
	s.bump(func(st *Stats) { st.SearchPages++ })

	if len(page.Body) == 0 {
		s.log.Warn("Empty search results page", "url", pageURL)
		return nil, nil
	}

	links, err := extractLinks(page.Body, s.engine.Unwrap)
	if err != nil {
		s.log.Warn("Failed to parse search results", "url", pageURL, "error", err)
		return nil, nil
	}
	s.log.Debug("Search results parsed", "start", start, "links", len(links))
	return links, nil
}

// expand visits the links found on a saved result page. Links found on
// those pages are not followed.
func (s *session) expand(ctx context.Context, page *fetcher.Page) error {
	links, err := extractLinks(page.Body, nil)
	if err != nil {
		s.log.Warn("Failed to parse page", "url", page.URL, "error", err)
		return nil
	}

	for _, link := range links {
		if s.quotaMet() {
			return nil
		}
		if !s.visited.MarkIfNew(link) {
			s.bump(func(st *Stats) { st.Duplicates++ })
			continue
		}
		if _, err := s.visit(ctx, link, DepthLinked); err != nil {
			return err
		}
	}
	return nil
}

// visit fetches rawURL and persists it. It returns the page when it was
// fetched with status 200, whether or not the sink accepted it.
func (s *session) visit(ctx context.Context, rawURL string, depth int) (*fetcher.Page, error) {
	page, err := s.get(ctx, rawURL)
	if err != nil || page == nil {
		return nil, err
	}
	s.persist(rawURL, page, depth)
	return page, nil
}

// get paces and performs one request. Transient failures are logged and
// reported as a nil page; only fatal errors are returned.
func (s *session) get(ctx context.Context, rawURL string) (*fetcher.Page, error) {
	s.mu.Lock()
	first := s.requests == 0
	s.requests++
	s.report.Stats.Requests++
	s.mu.Unlock()

	if !first {
		if err := s.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if errors.Is(err, pinning.ErrFingerprintMismatch) {
			s.log.Error("Certificate fingerprint mismatch", "url", rawURL, "error", err)
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Error("Error downloading", "url", rawURL, "error", err)
		s.bump(func(st *Stats) { st.FetchErrors++ })
		return nil, nil
	}
	if !page.OK() {
		s.log.Warn("Failed to download", "url", rawURL, "status", page.StatusCode)
		s.bump(func(st *Stats) { st.NonOK++ })
		return nil, nil
	}
	return page, nil
}

// persist saves page as the next artifact unless the quota is already met.
func (s *session) persist(rawURL string, page *fetcher.Page, depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.report.Artifacts) >= s.maxResults {
		return
	}

	seq := len(s.report.Artifacts) + 1
	path, err := s.sink.Save(seq, page)
	if err != nil {
		s.log.Error("Failed to save page", "url", rawURL, "seq", seq, "error", err)
		s.report.Stats.SinkErrors++
		return
	}

	s.report.Artifacts = append(s.report.Artifacts, Artifact{Seq: seq, URL: rawURL, Path: path, Depth: depth})
	s.report.Stats.Saved++
	s.log.Info("Downloaded", "url", rawURL, "path", path, "depth", depth)
}

func (s *session) quotaMet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.report.Artifacts) >= s.maxResults
}

func (s *session) bump(f func(*Stats)) {
	s.mu.Lock()
	f(&s.report.Stats)
	s.mu.Unlock()
}
