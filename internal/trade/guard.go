package trade

import "sync"

// Guard hands out one mutex per named resource: a trader id or the flea
// market. Purchases against different resources never wait on each other.
type Guard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{locks: make(map[string]*sync.Mutex)}
}

func (g *Guard) lockFor(resource string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[resource]
	if !ok {
		l = &sync.Mutex{}
		g.locks[resource] = l
	}
	return l
}

// Lock acquires resource and returns its release function.
func (g *Guard) Lock(resource string) (unlock func()) {
	l := g.lockFor(resource)
	l.Lock()
	return l.Unlock
}

// With runs fn while holding resource.
func (g *Guard) With(resource string, fn func() error) error {
	unlock := g.Lock(resource)
	defer unlock()
	return fn()
}
