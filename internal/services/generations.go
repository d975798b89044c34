package services

import "sync"

// generations hands out increasing fetch ids per resource. A fetch may
// publish its result only while its id is still the latest for that key.
type generations struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func newGenerations() *generations {
	return &generations{latest: map[string]uint64{}}
}

func (g *generations) Next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[key]++
	return g.latest[key]
}

func (g *generations) IsLatest(key string, id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[key] == id
}
