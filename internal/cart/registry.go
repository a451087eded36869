package cart

import "sync"

// Registry hands out one cart per user for the lifetime of the process.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{carts: map[string]*Cart{}}
}

// For returns the user's cart, creating it on first use.
func (r *Registry) For(userID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		c = New()
		r.carts[userID] = c
	}
	return c
}
