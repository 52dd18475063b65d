package state

import "sync"

// Registry owns one Store per user. Observers added to the registry are attached to every store
// it creates.
type Registry struct {
	mu        sync.Mutex
	stores    map[string]*Store
	observers []Observer
}

// NewRegistry builds a registry whose stores notify the given observers.
func NewRegistry(observers ...Observer) *Registry {
	return &Registry{stores: make(map[string]*Store), observers: observers}
}

// For returns the user's store, creating it on first use.
func (r *Registry) For(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stores[userID]; ok {
		return st
	}
	st := NewStore(State{UserID: userID})
	for _, o := range r.observers {
		st.Subscribe(o)
	}
	r.stores[userID] = st
	return st
}

// Lookup returns the user's store without creating one.
func (r *Registry) Lookup(userID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[userID]
	return st, ok
}

// Forget drops a user's store.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	delete(r.stores, userID)
	r.mu.Unlock()
}

// Len reports how many users have a store.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
