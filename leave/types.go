/*
Package leave provides the core leave-management engine.

PURPOSE:
  This package contains the domain types and rules for leave requests:
  per-user balances keyed by leave-type code, the request lifecycle from
  submission to a terminal decision, and the accounting invariant that a
  request debits its owner's balance exactly once, at approval.

KEY CONCEPTS IN THIS FILE (types.go):
  - TypeCode / TypeSet: Configured leave categories with default balances
  - User: Account record owning a per-type balance map
  - Request: A leave request with an inclusive date range and a status
  - Holiday: Company-wide calendar entry, never charged to anyone

DESIGN PRINCIPLES:
  1. Whole days only: balances and durations are integer day counts
  2. Terminal decisions: Approved and Rejected are final states
  3. Copy on read: callers get snapshots, never live internal maps

SEE ALSO:
  - ledger.go:  Balance debits and credits
  - store.go:   Request collection and status transitions
  - engine.go:  Validation and the approve/reject workflow
*/
package leave

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEAVE TYPES - Configured categories with their own balance pools
// =============================================================================

// TypeCode is a short identifier for a leave category (e.g. "CL").
type TypeCode string

// TypeSet maps configured codes to display names.
type TypeSet map[TypeCode]string

// DefaultTypes mirrors the standard company configuration.
var DefaultTypes = TypeSet{
	"EL": "Earned Leave",
	"CL": "Casual Leave",
	"SL": "Sick Leave",
	"OH": "Optional Holiday",
}

// DefaultBalance is the balance table copied onto newly created users.
var DefaultBalance = map[TypeCode]int{
	"EL": 12,
	"CL": 12,
	"SL": 12,
	"OH": 2,
}

// Contains reports whether code is a configured leave type.
func (ts TypeSet) Contains(code TypeCode) bool {
	_, ok := ts[code]
	return ok
}

// Codes returns the configured codes in stable sorted order.
func (ts TypeSet) Codes() []TypeCode {
	codes := make([]TypeCode, 0, len(ts))
	for c := range ts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// =============================================================================
// USER - Account record owning its balance map
// =============================================================================

// User is an account. Non-admin users hold an entry for every configured
// leave type; admin balances exist but are never debited (see ledger.go).
type User struct {
	Username     string           `json:"username"`
	PasswordHash string           `json:"password_hash"`
	Email        string           `json:"email"`
	Department   string           `json:"department"`
	IsAdmin      bool             `json:"is_admin"`
	Balance      map[TypeCode]int `json:"balance"`
}

// NewUser creates a user with the given balances. A nil balance map gets a
// copy of DefaultBalance; admins keep whatever they are given.
func NewUser(username, passwordHash, email, department string, isAdmin bool, balance map[TypeCode]int) User {
	if balance == nil {
		balance = make(map[TypeCode]int, len(DefaultBalance))
		for code, days := range DefaultBalance {
			balance[code] = days
		}
	}
	return User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		Department:   department,
		IsAdmin:      isAdmin,
		Balance:      balance,
	}
}

// CloneBalance returns a copy of the user's balance map.
func (u User) CloneBalance() map[TypeCode]int {
	out := make(map[TypeCode]int, len(u.Balance))
	for code, days := range u.Balance {
		out[code] = days
	}
	return out
}

// =============================================================================
// REQUEST - A leave request moving from Pending to a terminal state
// =============================================================================

type RequestID string

// NewRequestID returns a fresh random identifier. Random rather than
// sequential so reloaded snapshots never need a persisted counter.
func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request is a leave request. StartDate and EndDate form an inclusive
// range; AdminComment is non-empty only on rejected requests.
type Request struct {
	ID           RequestID  `json:"id"`
	Username     string     `json:"username"`
	StartDate    Date       `json:"start_date"`
	EndDate      Date       `json:"end_date"`
	LeaveType    TypeCode   `json:"leave_type"`
	Reason       string     `json:"reason"`
	Status       Status     `json:"status"`
	AdminComment string     `json:"admin_comment,omitempty"`
	RequestedAt  time.Time  `json:"requested_at"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
}

// Duration is the inclusive day count between start and end.
func (r Request) Duration() int {
	return DaysBetween(r.StartDate, r.EndDate) + 1
}

// Overlaps reports whether the request's range intersects [from, to].
func (r Request) Overlaps(from, to Date) bool {
	return !r.EndDate.Before(from) && !r.StartDate.After(to)
}

// =============================================================================
// HOLIDAY - Company-wide calendar entry
// =============================================================================

// Holiday contributes to calendar display only; it never affects balances.
type Holiday struct {
	Date        Date   `json:"date"`
	Description string `json:"description"`
}

// =============================================================================
// SNAPSHOT - The three persisted collections as one value
// =============================================================================

// Snapshot is the complete persisted state: users keyed by username,
// requests in insertion order, and the holiday list.
type Snapshot struct {
	Users    map[string]User `json:"users"`
	Requests []Request       `json:"requests"`
	Holidays []Holiday       `json:"holidays"`
}

// EmptySnapshot returns a snapshot with initialized empty collections.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Users:    make(map[string]User),
		Requests: nil,
		Holidays: nil,
	}
}

// SnapshotStore persists and restores the three collections as a whole.
// Save must replace the on-disk state atomically: a concurrent reader sees
// either the previous snapshot or the new one, never a partial write.
type SnapshotStore interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
	Backup() error
}
