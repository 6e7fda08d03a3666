package resolver

import "sync"

// Generations tracks the latest request per client so that a response for a
// superseded request can be dropped instead of overwriting a newer one.
type Generations struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]uint64
}

// NewGenerations returns an empty tracker.
func NewGenerations() *Generations {
	return &Generations{latest: make(map[string]uint64)}
}

// Issue starts a new request for key and returns its generation.
// Generations are unique across keys and never reused.
func (g *Generations) Issue(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	g.latest[key] = g.next
	return g.next
}

// Current reports whether gen is still the latest request for key.
func (g *Generations) Current(key string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[key] == gen
}

// Done forgets key if gen is still its latest request.
func (g *Generations) Done(key string, gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latest[key] == gen {
		delete(g.latest, key)
	}
}

// Len returns the number of clients with a request in flight.
func (g *Generations) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.latest)
}
