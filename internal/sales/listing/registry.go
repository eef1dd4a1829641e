package listing

import (
	"sync"
	"time"
)

// DefaultViewTTL is how long an idle listing view is kept.
const DefaultViewTTL = 30 * time.Minute

// Registry keeps one Coordinator per session and view. A view that has not been used
// for the TTL is dropped, which discards its query state.
type Registry struct {
	fetcher Fetcher
	opts    Options
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	views map[string]*registryEntry
}

type registryEntry struct {
	coordinator *Coordinator
	lastUsed    time.Time
}

// NewRegistry creates a Registry whose coordinators share fetcher and opts.
func NewRegistry(fetcher Fetcher, opts Options, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	return &Registry{
		fetcher: fetcher,
		opts:    opts,
		ttl:     ttl,
		now:     time.Now,
		views:   make(map[string]*registryEntry),
	}
}

// Acquire returns the coordinator of the given session view, creating it with defaults
// when missing. The boolean reports whether it was created.
func (r *Registry) Acquire(sessionID, view string, defaults Filters) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	key := viewKey(sessionID, view)
	if entry, ok := r.views[key]; ok {
		entry.lastUsed = now
		return entry.coordinator, false
	}

	opts := r.opts
	opts.Defaults = defaults
	coordinator := NewCoordinator(r.fetcher, opts)
	r.views[key] = &registryEntry{coordinator: coordinator, lastUsed: now}
	return coordinator, true
}

// Lookup returns an existing coordinator without creating one.
func (r *Registry) Lookup(sessionID, view string) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(r.now())
	entry, ok := r.views[viewKey(sessionID, view)]
	if !ok {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.coordinator, true
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) sweepLocked(now time.Time) {
	for key, entry := range r.views {
		if now.Sub(entry.lastUsed) > r.ttl {
			delete(r.views, key)
		}
	}
}

func viewKey(sessionID, view string) string {
	return sessionID + "|" + view
}
