/*
engine.go - Request lifecycle and user/holiday management

PURPOSE:
  The Engine is the single synchronous entry point for every mutation.
  It validates submissions against the ledger and the policy window,
  drives the Pending -> {Approved, Rejected} state machine, and keeps the
  central invariant: a request's debit is applied exactly once, at the
  moment of approval, and the debit and the status transition succeed or
  fail together.

REQUEST FLOW:

  Submit ──▶ Pending ──▶ Approve ──▶ debit ledger, status Approved
                    └──▶ Reject  ──▶ ledger untouched, status Rejected

  Both outcomes are terminal. A second decision on the same request
  returns ErrAlreadyDecided and leaves the balance unchanged.

LOCKING:
  One RWMutex guards the users map, the Ledger, and the Store together.
  That is what makes "debit and transition are atomic" real for a
  single-process deployment. There is no cross-process coordination;
  running two servers against one data directory is not supported.

PERSISTENCE:
  After each successful mutation the engine saves a full snapshot through
  the configured SnapshotStore. A failed save is returned as a
  persistence error; the in-memory mutation stands. Callers report the
  failure instead of pretending the operation did not happen.
*/
package leave

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Policy bounds the start date of new submissions.
type Policy struct {
	MinAdvanceDays int // start must be at least this many days out
	MaxHorizonDays int // start must be at most this many days out
}

// DefaultPolicy is the standard 7-day notice and 1-year horizon.
var DefaultPolicy = Policy{MinAdvanceDays: 7, MaxHorizonDays: 365}

// Config assembles an Engine.
type Config struct {
	Types     TypeSet          // configured leave types; nil means DefaultTypes
	Defaults  map[TypeCode]int // balance table for new users; nil means DefaultBalance
	Policy    Policy           // zero value means DefaultPolicy
	Snapshots SnapshotStore    // optional; nil disables persistence
	Admin     User             // seeded on empty state and restored by Purge
	Now       func() time.Time // optional clock override for tests
}

// Engine coordinates the Ledger, the Store, and the user set under one lock.
type Engine struct {
	mu sync.RWMutex

	users  map[string]*User
	store  *Store
	ledger *Ledger

	holidays []Holiday

	types     TypeSet
	defaults  map[TypeCode]int
	policy    Policy
	snapshots SnapshotStore
	admin     User
	now       func() time.Time
}

// New builds an engine, loading persisted state when a SnapshotStore is
// configured and seeding the default admin if it is missing.
func New(cfg Config) (*Engine, error) {
	if cfg.Types == nil {
		cfg.Types = DefaultTypes
	}
	if cfg.Defaults == nil {
		cfg.Defaults = DefaultBalance
	}
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	snap := EmptySnapshot()
	if cfg.Snapshots != nil {
		loaded, err := cfg.Snapshots.Load()
		if err != nil {
			return nil, &PersistenceError{Op: "load", Err: err}
		}
		snap = loaded
	}

	e := &Engine{
		users:     make(map[string]*User, len(snap.Users)),
		store:     NewStoreFrom(snap.Requests),
		holidays:  append([]Holiday(nil), snap.Holidays...),
		types:     cfg.Types,
		defaults:  cfg.Defaults,
		policy:    cfg.Policy,
		snapshots: cfg.Snapshots,
		admin:     cfg.Admin,
		now:       cfg.Now,
	}
	for name, u := range snap.Users {
		user := u
		e.users[name] = &user
	}
	e.ledger = NewLedger(e.users, e.types)

	if cfg.Admin.Username != "" {
		if _, ok := e.users[cfg.Admin.Username]; !ok {
			admin := cfg.Admin
			admin.IsAdmin = true
			e.users[admin.Username] = &admin
			if err := e.persistLocked(); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

// Submit validates a new leave request and creates it in Pending state.
// The ledger is not touched; the debit happens at approval.
func (e *Engine) Submit(username string, start, end Date, code TypeCode, reason string) (Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.users[username]; !ok {
		return Request{}, ErrUnknownUser
	}
	if strings.TrimSpace(reason) == "" {
		return Request{}, ErrEmptyReason
	}
	if !e.types.Contains(code) {
		return Request{}, ErrUnknownLeaveType
	}
	if end.Before(start) {
		return Request{}, ErrInvalidDateRange
	}

	today := DateOf(e.now())
	earliest := today.AddDays(e.policy.MinAdvanceDays)
	latest := today.AddDays(e.policy.MaxHorizonDays)
	if start.Before(earliest) || start.After(latest) {
		return Request{}, &PolicyWindowError{Start: start, Earliest: earliest, Latest: latest}
	}

	req := Request{
		Username:  username,
		StartDate: start,
		EndDate:   end,
		LeaveType: code,
		Reason:    reason,
	}
	available, err := e.ledger.Balance(username, code)
	if err != nil {
		return Request{}, err
	}
	if duration := req.Duration(); duration > available {
		return Request{}, &InsufficientBalanceError{
			Username:  username,
			LeaveType: code,
			Available: available,
			Requested: duration,
		}
	}

	id := e.store.Create(req, e.now())
	created, _ := e.store.Get(id)
	return created, e.persistLocked()
}

// Decide transitions a pending request to a terminal state. Approving
// debits the ledger for the request's full duration; if that debit fails
// (the balance may have shrunk since submission) the request stays
// Pending and the status is not mutated. Rejecting requires a comment
// and leaves the ledger untouched.
func (e *Engine) Decide(id RequestID, outcome Status, comment string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	req, ok := e.store.Get(id)
	if !ok {
		return ErrRequestNotFound
	}
	if req.Status.Terminal() {
		return ErrAlreadyDecided
	}

	switch outcome {
	case StatusApproved:
		// Debit first: the transition only happens if the charge lands.
		if err := e.ledger.Debit(req.Username, req.LeaveType, req.Duration()); err != nil {
			return err
		}
		e.store.UpdateStatus(id, StatusApproved, "", e.now())

	case StatusRejected:
		if strings.TrimSpace(comment) == "" {
			return ErrMissingRejectionReason
		}
		e.store.UpdateStatus(id, StatusRejected, comment, e.now())

	default:
		return fmt.Errorf("invalid outcome %q: must be %s or %s", outcome, StatusApproved, StatusRejected)
	}

	return e.persistLocked()
}

// Request returns a copy of the request with the given id.
func (e *Engine) Request(id RequestID) (Request, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	req, ok := e.store.Get(id)
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	return req, nil
}

// RequestsByUser returns a user's requests in insertion order.
func (e *Engine) RequestsByUser(username string) []Request {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListByUser(username)
}

// PendingRequests returns all requests awaiting a decision.
func (e *Engine) PendingRequests() []Request {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListPending()
}

// ApprovedRequests returns all approved requests.
func (e *Engine) ApprovedRequests() []Request {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListApproved()
}

// AllRequests returns every request in insertion order.
func (e *Engine) AllRequests() []Request {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListAll()
}

// Balance returns the remaining days for a user and leave type.
func (e *Engine) Balance(username string, code TypeCode) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Balance(username, code)
}

// Balances returns a copy of the user's full balance map.
func (e *Engine) Balances(username string) (map[TypeCode]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Balances(username)
}

// Types returns the configured leave types.
func (e *Engine) Types() TypeSet {
	return e.types
}

// =============================================================================
// USER MANAGEMENT
// =============================================================================

// UserUpdate carries optional changes for UpdateUser. Nil fields are left
// untouched. Balance edits are ignored for admin users.
type UserUpdate struct {
	Email        *string
	Department   *string
	PasswordHash *string
	Balance      map[TypeCode]int
}

// CreateUser adds a user. A nil balance map gets the configured default
// table; non-admin users are guaranteed an entry for every configured code.
func (e *Engine) CreateUser(username, passwordHash, email, department string, isAdmin bool, balance map[TypeCode]int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.users[username]; ok {
		return ErrDuplicateUser
	}
	if balance == nil {
		balance = make(map[TypeCode]int, len(e.defaults))
		for code, days := range e.defaults {
			balance[code] = days
		}
	}
	if !isAdmin {
		for code := range e.types {
			if _, ok := balance[code]; !ok {
				balance[code] = 0
			}
		}
	}
	u := NewUser(username, passwordHash, email, department, isAdmin, balance)
	e.users[username] = &u
	return e.persistLocked()
}

// UpdateUser applies the non-nil fields of upd to an existing user.
func (e *Engine) UpdateUser(username string, upd UserUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.users[username]
	if !ok {
		return ErrUnknownUser
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Department != nil {
		u.Department = *upd.Department
	}
	if upd.PasswordHash != nil && *upd.PasswordHash != "" {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Balance != nil && !u.IsAdmin {
		balance := make(map[TypeCode]int, len(upd.Balance))
		for code, days := range upd.Balance {
			balance[code] = days
		}
		u.Balance = balance
	}
	return e.persistLocked()
}

// DeleteUser removes a user and cascades to their requests. The last
// remaining admin cannot be deleted.
func (e *Engine) DeleteUser(username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.users[username]
	if !ok {
		return ErrUnknownUser
	}
	if u.IsAdmin && e.adminCountLocked() <= 1 {
		return ErrLastAdmin
	}
	delete(e.users, username)
	e.store.DeleteAllForUser(username)
	return e.persistLocked()
}

// User returns a copy of the named user, with a cloned balance map.
func (e *Engine) User(username string) (User, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	u, ok := e.users[username]
	if !ok {
		return User{}, ErrUnknownUser
	}
	out := *u
	out.Balance = u.CloneBalance()
	return out, nil
}

// Users returns copies of all users, sorted by username.
func (e *Engine) Users() []User {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]User, 0, len(e.users))
	for _, u := range e.users {
		c := *u
		c.Balance = u.CloneBalance()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (e *Engine) adminCountLocked() int {
	n := 0
	for _, u := range e.users {
		if u.IsAdmin {
			n++
		}
	}
	return n
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// AddHoliday records a company-wide holiday.
func (e *Engine) AddHoliday(date Date, description string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.holidays = append(e.holidays, Holiday{Date: date, Description: description})
	return e.persistLocked()
}

// RemoveHoliday deletes every holiday on the given date. Returns false if
// none existed.
func (e *Engine) RemoveHoliday(date Date) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.holidays[:0]
	removed := false
	for _, h := range e.holidays {
		if h.Date.Equal(date) {
			removed = true
			continue
		}
		kept = append(kept, h)
	}
	e.holidays = kept
	if !removed {
		return false, nil
	}
	return true, e.persistLocked()
}

// Holidays returns a copy of the holiday list.
func (e *Engine) Holidays() []Holiday {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Holiday(nil), e.holidays...)
}

// =============================================================================
// SNAPSHOTS, BACKUP, PURGE
// =============================================================================

// State returns a deep copy of the full engine state. Calendar and report
// aggregation read from this, never from live internals.
func (e *Engine) State() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// Backup copies the persisted collections to timestamped artifacts.
func (e *Engine) Backup() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.snapshots == nil {
		return nil
	}
	if err := e.snapshots.Backup(); err != nil {
		return &PersistenceError{Op: "backup", Err: err}
	}
	return nil
}

// Purge backs up the current state, then resets to a single default admin
// and empty request/holiday collections.
func (e *Engine) Purge() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshots != nil {
		if err := e.snapshots.Backup(); err != nil {
			return &PersistenceError{Op: "backup", Err: err}
		}
	}

	e.users = make(map[string]*User)
	if e.admin.Username != "" {
		admin := e.admin
		admin.IsAdmin = true
		e.users[admin.Username] = &admin
	}
	e.store = NewStore()
	e.holidays = nil
	e.ledger = NewLedger(e.users, e.types)
	return e.persistLocked()
}

func (e *Engine) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Users:    make(map[string]User, len(e.users)),
		Requests: e.store.ListAll(),
		Holidays: append([]Holiday(nil), e.holidays...),
	}
	for name, u := range e.users {
		c := *u
		c.Balance = u.CloneBalance()
		snap.Users[name] = c
	}
	return snap
}

func (e *Engine) persistLocked() error {
	if e.snapshots == nil {
		return nil
	}
	if err := e.snapshots.Save(e.snapshotLocked()); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}
