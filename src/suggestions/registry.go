package suggestions

import "sync"

// Registry tracks which suggestion ids have live voting controls in this
// process. It only restores routability after a restart; the store stays
// authoritative for state.
type Registry struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

func (r *Registry) Add(id string) {
	r.mu.Lock()
	r.ids[id] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.ids, id)
	r.mu.Unlock()
}
