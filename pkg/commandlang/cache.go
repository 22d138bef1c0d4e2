package commandlang

import "sync"

// TemplateCache is a thread-safe cache of parsed templates. Custom commands
// render the same text on every invocation, so parsing once pays off.
type TemplateCache struct {
	cache      map[string][]Segment
	maxEntries int
	mu         sync.RWMutex
}

// NewTemplateCache creates a template cache holding at most maxEntries
// templates. A non-positive maxEntries means no limit.
func NewTemplateCache(maxEntries int) *TemplateCache {
	return &TemplateCache{
		cache:      make(map[string][]Segment),
		maxEntries: maxEntries,
	}
}

// Get retrieves the parsed segments of a template.
func (tc *TemplateCache) Get(template string) ([]Segment, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	segments, ok := tc.cache[template]
	return segments, ok
}

// Set stores parsed segments for a template. When the cache is full it is
// emptied first.
func (tc *TemplateCache) Set(template string, segments []Segment) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.maxEntries > 0 && len(tc.cache) >= tc.maxEntries {
		if _, exists := tc.cache[template]; !exists {
			tc.cache = make(map[string][]Segment)
		}
	}
	tc.cache[template] = segments
}

// Len returns the number of cached templates.
func (tc *TemplateCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.cache)
}

// Clear drops every cached template.
func (tc *TemplateCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cache = make(map[string][]Segment)
}
