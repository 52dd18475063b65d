package state

import "sync"

// Observer receives the state after every update.
type Observer func(prev, next State)

// Store holds one State and notifies observers synchronously after each update.
type Store struct {
	mu        sync.Mutex
	state     State
	observers map[int]Observer
	nextID    int
}

// NewStore creates a store seeded with initial.
func NewStore(initial State) *Store {
	return &Store{state: initial.clone(), observers: make(map[int]Observer)}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Update applies fn to a copy of the state, stores it and notifies observers outside the lock.
// fn returning an error leaves the state untouched.
func (s *Store) Update(fn func(*State) error) (State, error) {
	s.mu.Lock()
	prev := s.state.clone()
	next := s.state.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return prev, err
	}
	s.state = next.clone()
	observers := make([]Observer, 0, len(s.observers))
	for i := 0; i < s.nextID; i++ {
		if o, ok := s.observers[i]; ok {
			observers = append(observers, o)
		}
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(prev.clone(), next.clone())
	}
	return next, nil
}

// Subscribe registers an observer and returns the function removing it.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}
