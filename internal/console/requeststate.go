// Package console holds the operator-side state that drives the remitdesk
// API: the live settlement preview of a transaction draft and the group
// toggle used to bucket transactions.
package console

import "sync"

// RequestStatus is the lifecycle of one keyed remote request.
type RequestStatus int

const (
	StatusLoading RequestStatus = iota + 1
	StatusReady
	StatusFailed
)

// RequestState is the last known state of a keyed request.
type RequestState[V any] struct {
	Status RequestStatus
	Value  V
	Err    error
}

// RequestStates tracks the in-flight and settled requests of many entities,
// one state per key.
type RequestStates[K comparable, V any] struct {
	mu     sync.RWMutex
	states map[K]RequestState[V]
}

// NewRequestStates creates an empty state map.
func NewRequestStates[K comparable, V any]() *RequestStates[K, V] {
	return &RequestStates[K, V]{states: make(map[K]RequestState[V])}
}

// Get returns the state of key.
func (s *RequestStates[K, V]) Get(key K) (RequestState[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[key]
	return st, ok
}

// Begin marks key as loading. It returns false when a request for key is
// already in flight.
func (s *RequestStates[K, V]) Begin(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[key]; ok && st.Status == StatusLoading {
		return false
	}
	s.states[key] = RequestState[V]{Status: StatusLoading}
	return true
}

// Resolve stores the value of a finished request.
func (s *RequestStates[K, V]) Resolve(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = RequestState[V]{Status: StatusReady, Value: value}
}

// Fail records a failed request.
func (s *RequestStates[K, V]) Fail(key K, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = RequestState[V]{Status: StatusFailed, Err: err}
}

// Delete forgets key.
func (s *RequestStates[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
}

// Loading reports whether a request for key is in flight.
func (s *RequestStates[K, V]) Loading(key K) bool {
	st, ok := s.Get(key)
	return ok && st.Status == StatusLoading
}
