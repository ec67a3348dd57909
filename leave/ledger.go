/*
ledger.go - Per-user balance accounting

PURPOSE:
  The Ledger owns every balance mutation. Debits happen in exactly one
  place so the approval workflow cannot double-charge a request, and read
  paths hand out copies so display code can never mutate live state.

ADMIN EXEMPTION:
  Debit on an admin account is a no-op. Admins are simply never charged;
  this mirrors the documented behavior of the system it replaces and is
  recorded as an open question in DESIGN.md rather than "fixed".

CONCURRENCY:
  The Ledger is not safe for concurrent use on its own. The Engine holds
  one write lock over Ledger and Store together (see engine.go).
*/
package leave

// Ledger applies debits and credits to user balance maps.
type Ledger struct {
	users map[string]*User
	types TypeSet
}

// NewLedger creates a ledger over the given user set.
func NewLedger(users map[string]*User, types TypeSet) *Ledger {
	return &Ledger{users: users, types: types}
}

// Balance returns the remaining days for a user and leave type.
func (l *Ledger) Balance(username string, code TypeCode) (int, error) {
	if !l.types.Contains(code) {
		return 0, ErrUnknownLeaveType
	}
	u, ok := l.users[username]
	if !ok {
		return 0, ErrUnknownUser
	}
	return u.Balance[code], nil
}

// Debit reduces a user's balance by days. Fails when days exceed the
// remaining balance. Admin accounts are exempt and the call is a no-op.
func (l *Ledger) Debit(username string, code TypeCode, days int) error {
	if !l.types.Contains(code) {
		return ErrUnknownLeaveType
	}
	u, ok := l.users[username]
	if !ok {
		return ErrUnknownUser
	}
	if u.IsAdmin {
		return nil
	}
	available := u.Balance[code]
	if days > available {
		return &InsufficientBalanceError{
			Username:  username,
			LeaveType: code,
			Available: available,
			Requested: days,
		}
	}
	u.Balance[code] = available - days
	return nil
}

// Credit restores days to a user's balance. Used for reversal scenarios;
// like Debit it is a no-op on admin accounts.
func (l *Ledger) Credit(username string, code TypeCode, days int) error {
	if !l.types.Contains(code) {
		return ErrUnknownLeaveType
	}
	u, ok := l.users[username]
	if !ok {
		return ErrUnknownUser
	}
	if u.IsAdmin {
		return nil
	}
	u.Balance[code] += days
	return nil
}

// Balances returns a copy of a user's full balance map.
func (l *Ledger) Balances(username string) (map[TypeCode]int, error) {
	u, ok := l.users[username]
	if !ok {
		return nil, ErrUnknownUser
	}
	return u.CloneBalance(), nil
}
