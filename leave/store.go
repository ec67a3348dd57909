/*
store.go - Leave request collection

PURPOSE:
  The Store owns every Request record. It preserves insertion order,
  assigns identifiers at creation, and performs status transitions with
  their decision timestamps. Filtering is pure: list methods return
  copies and never mutate.

IDENTIFIERS:
  IDs are random UUIDs, not counters. A counter would need its high-water
  mark persisted to survive a snapshot reload; random ids do not collide
  across restarts without any extra state.

CONCURRENCY:
  Like the Ledger, the Store relies on the Engine's single write lock.
*/
package leave

import "time"

// Store holds all leave requests ever created, keyed by id, with
// insertion order preserved.
type Store struct {
	requests []Request
	byID     map[RequestID]int
}

// NewStore creates an empty request store.
func NewStore() *Store {
	return &Store{byID: make(map[RequestID]int)}
}

// NewStoreFrom creates a store seeded with previously persisted requests.
func NewStoreFrom(requests []Request) *Store {
	s := NewStore()
	for _, r := range requests {
		s.byID[r.ID] = len(s.requests)
		s.requests = append(s.requests, r)
	}
	return s
}

// Create assigns a fresh id and timestamp, forces Pending, and appends.
// The caller never supplies the id.
func (s *Store) Create(req Request, now time.Time) RequestID {
	req.ID = NewRequestID()
	req.Status = StatusPending
	req.AdminComment = ""
	req.RequestedAt = now
	req.DecidedAt = nil

	s.byID[req.ID] = len(s.requests)
	s.requests = append(s.requests, req)
	return req.ID
}

// Get returns a copy of the request with the given id.
func (s *Store) Get(id RequestID) (Request, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Request{}, false
	}
	return s.requests[i], true
}

// UpdateStatus transitions a request and records the decision timestamp.
// Returns false when the id is absent; the caller surfaces that rather
// than treating it as fatal.
func (s *Store) UpdateStatus(id RequestID, status Status, comment string, now time.Time) bool {
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.requests[i].Status = status
	s.requests[i].AdminComment = comment
	decided := now
	s.requests[i].DecidedAt = &decided
	return true
}

// ListByUser returns all requests for a user in insertion order.
func (s *Store) ListByUser(username string) []Request {
	var out []Request
	for _, r := range s.requests {
		if r.Username == username {
			out = append(out, r)
		}
	}
	return out
}

// ListPending returns all requests still awaiting a decision.
func (s *Store) ListPending() []Request {
	return s.listByStatus(StatusPending)
}

// ListApproved returns all approved requests.
func (s *Store) ListApproved() []Request {
	return s.listByStatus(StatusApproved)
}

// ListAll returns a copy of every request in insertion order.
func (s *Store) ListAll() []Request {
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Store) listByStatus(status Status) []Request {
	var out []Request
	for _, r := range s.requests {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// DeleteAllForUser removes every request owned by a user. Used by the
// cascading user-delete path.
func (s *Store) DeleteAllForUser(username string) {
	kept := s.requests[:0]
	for _, r := range s.requests {
		if r.Username != username {
			kept = append(kept, r)
		}
	}
	s.requests = kept

	s.byID = make(map[RequestID]int, len(s.requests))
	for i, r := range s.requests {
		s.byID[r.ID] = i
	}
}

// Len returns the number of stored requests.
func (s *Store) Len() int {
	return len(s.requests)
}
