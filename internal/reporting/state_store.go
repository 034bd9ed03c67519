package reporting

import (
	"sort"
	"sync"
)

// StateStore keeps the latest update per forward label. It deduplicates
// repeated reports of the same state so consumers only see transitions.
type StateStore struct {
	mu     sync.Mutex
	states map[string]ForwardUpdate
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]ForwardUpdate)}
}

// Set records the update and reports whether it changed the stored state for
// the label. A change of PID, state, or error text counts as a transition;
// repeated log-line details in the same state do not.
func (s *StateStore) Set(u ForwardUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, known := s.states[u.Label]
	s.states[u.Label] = u
	if !known {
		return true
	}
	if prev.State != u.State || prev.PID != u.PID {
		return true
	}
	prevErr, curErr := "", ""
	if prev.Err != nil {
		prevErr = prev.Err.Error()
	}
	if u.Err != nil {
		curErr = u.Err.Error()
	}
	return prevErr != curErr
}

// Get returns the latest update for a label.
func (s *StateStore) Get(label string) (ForwardUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.states[label]
	return u, ok
}

// Snapshot returns the latest update for every known label, sorted by label
// for stable rendering.
func (s *StateStore) Snapshot() []ForwardUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ForwardUpdate, 0, len(s.states))
	for _, u := range s.states {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// countInState returns how many labels are currently in the given state.
func (s *StateStore) countInState(state ForwardState) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.states {
		if u.State == state {
			n++
		}
	}
	return n
}
