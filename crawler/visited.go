package crawler

import "sync"

// VisitedSet records the URLs processed in one crawl session. URLs are
// compared by exact string.
type VisitedSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// MarkIfNew adds url and reports whether it was absent. Check and insert are
// a single step, so concurrent callers never both get true for one URL.
func (v *VisitedSet) MarkIfNew(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.urls[url]; ok {
		return false
	}
	v.urls[url] = struct{}{}
	return true
}

func (v *VisitedSet) Contains(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.urls[url]
	return ok
}

func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.urls)
}
