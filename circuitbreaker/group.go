package circuitbreaker

import "sync"

// Group hands out one circuit breaker per name (e.g. per upstream host),
// all built from the same Config.
type Group struct {
	config Config

	mu       sync.Mutex
	breakers map[string]CircuitBreaker
}

// NewGroup creates an empty group. cfg.Name is ignored; each breaker is
// named after its key.
func NewGroup(cfg Config) *Group {
	return &Group{
		config:   cfg,
		breakers: make(map[string]CircuitBreaker),
	}
}

// Get returns the breaker for name, creating it on first use.
func (g *Group) Get(name string) CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[name]; ok {
		return cb
	}

	cfg := g.config
	cfg.Name = name
	cb := New(cfg)
	g.breakers[name] = cb
	return cb
}

// States returns a snapshot of every breaker's state keyed by name.
func (g *Group) States() map[string]State {
	g.mu.Lock()
	defer g.mu.Unlock()

	states := make(map[string]State, len(g.breakers))
	for name, cb := range g.breakers {
		states[name] = cb.State()
	}
	return states
}
