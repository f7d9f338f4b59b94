package server

import "sync"

// NamePool hands out chat names from a fixed list. Take pops from the
// end of the list; Return puts a name back at the front, so a released
// name is the last one to be handed out again.
type NamePool struct {
	mu       sync.Mutex
	names    []string
	capacity int
}

// NewNamePool creates a pool over a copy of names.
func NewNamePool(names []string) *NamePool {
	return &NamePool{
		names:    append([]string(nil), names...),
		capacity: len(names),
	}
}

// Take removes and returns the last free name. The second return value
// is false when the pool is empty.
func (p *NamePool) Take() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.names) == 0 {
		return "", false
	}

	name := p.names[len(p.names)-1]
	p.names = p.names[:len(p.names)-1]
	return name, true
}

// Return puts a name back at the front of the pool. Returning a name
// that is already free is a no-op.
func (p *NamePool) Return(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, n := range p.names {
		if n == name {
			return
		}
	}

	p.names = append([]string{name}, p.names...)
}

// Free returns the number of names still available.
func (p *NamePool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.names)
}

// Capacity returns the total size of the pool.
func (p *NamePool) Capacity() int {
	return p.capacity
}
