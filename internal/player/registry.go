package player

import "sync"

// Registry is an arena of players keyed by device host. Group membership is
// expressed as host lookups into the registry rather than object pointers,
// so removing a device cannot leave dangling references.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*Player
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		players: make(map[string]*Player),
	}
}

// Add registers a player under its host and hands it the registry for
// group propagation lookups.
func (r *Registry) Add(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.registry = r
	r.players[p.Host] = p
}

// Get returns the player for a host, or nil.
func (r *Registry) Get(host string) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players[host]
}

// Remove drops a player from the registry.
func (r *Registry) Remove(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, host)
}

// Hosts returns all registered hosts.
func (r *Registry) Hosts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hosts := make([]string, 0, len(r.players))
	for host := range r.players {
		hosts = append(hosts, host)
	}
	return hosts
}
