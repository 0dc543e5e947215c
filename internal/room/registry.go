package room

import "sync"

type registry struct {
	mu    sync.RWMutex
	byID  map[string]*Room
	order []*Room
}

func newRegistry() *registry {
	return &registry{byID: make(map[string]*Room)}
}

func (g *registry) add(r *Room) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.byID[r.ID()]; ok {
		return ErrDuplicateRoom
	}
	g.byID[r.ID()] = r
	g.order = append(g.order, r)
	return nil
}

func (g *registry) get(id string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.byID[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (g *registry) list() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Room, len(g.order))
	copy(out, g.order)
	return out
}
