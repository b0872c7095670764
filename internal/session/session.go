// Package session holds the signed-in viewer value and an observable store
// for it. A nil *Session means an anonymous viewer.
package session

import (
	"context"
	"slices"
	"sync"
)

type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// ID returns the viewer id, or "" for an anonymous viewer.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.UserID
}

type ctxKey struct{}

func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Store is the single place the current session is written. Views subscribe
// to be told about changes instead of reading ambient state.
type Store struct {
	mu      sync.RWMutex
	current *Session
	subs    map[int]func(*Session)
	nextID  int
}

func NewStore(initial *Session) *Store {
	return &Store{current: initial, subs: map[int]func(*Session){}}
}

func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the session and notifies subscribers in subscription order.
// Notifications run outside the lock so a subscriber may read Current.
func (s *Store) Set(next *Session) {
	s.mu.Lock()
	s.current = next
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		s.mu.RLock()
		fn, ok := s.subs[id]
		s.mu.RUnlock()
		// unsubscribed while earlier subscribers ran
		if !ok {
			continue
		}
		fn(next)
	}
}

// Subscribe registers fn and returns the matching unsubscribe. Calling the
// returned func more than once is harmless.
func (s *Store) Subscribe(fn func(*Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
