/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The presentation layer maps these onto user-facing messages; nothing
  here is ever allowed to escape as a panic across that boundary.

ERROR CATEGORIES:
  1. Validation errors - bad input shape or range
  2. Policy errors     - business rules (balance, terminal states)
  3. Not-found errors  - missing users or requests
  4. Persistence errors - snapshot load/save/backup failures

USAGE:
  Callers classify with the helpers:

    if leave.IsPolicy(err) {
        // 409 at the HTTP boundary
    }
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyReason is returned when a submission carries no reason text.
	ErrEmptyReason = errors.New("reason must not be empty")

	// ErrUnknownLeaveType is returned for a code outside the configured set.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrInvalidDateRange is returned when the end date precedes the start.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrDateOutOfPolicyWindow is returned when the start date violates the
	// advance-notice or horizon bound.
	ErrDateOutOfPolicyWindow = errors.New("start date outside policy window")

	// ErrInsufficientBalance is returned when a duration exceeds the
	// remaining balance for the leave type.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyDecided is returned when deciding a request that already
	// reached a terminal state. This is what prevents double debits.
	ErrAlreadyDecided = errors.New("request already decided")

	// ErrMissingRejectionReason is returned when a rejection carries no comment.
	ErrMissingRejectionReason = errors.New("rejection requires a comment")

	// ErrRequestNotFound is returned for an unknown request id.
	ErrRequestNotFound = errors.New("request not found")

	// ErrUnknownUser is returned for an unknown username.
	ErrUnknownUser = errors.New("unknown user")

	// ErrDuplicateUser is returned when creating a user whose name is taken.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrLastAdmin is returned when deleting the only remaining admin.
	ErrLastAdmin = errors.New("cannot delete the last admin user")

	// ErrPersistence wraps snapshot I/O failures.
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortage for a leave type.
type InsufficientBalanceError struct {
	Username  string
	LeaveType TypeCode
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %s: available %d, requested %d",
		e.LeaveType, e.Username, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// PolicyWindowError reports where a start date was allowed to fall.
type PolicyWindowError struct {
	Start    Date
	Earliest Date
	Latest   Date
}

func (e *PolicyWindowError) Error() string {
	return fmt.Sprintf("start %s outside policy window [%s, %s]",
		e.Start, e.Earliest, e.Latest)
}

func (e *PolicyWindowError) Unwrap() error {
	return ErrDateOutOfPolicyWindow
}

// PersistenceError carries the failing snapshot operation.
type PersistenceError struct {
	Op  string // "load", "save", "backup"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return ErrPersistence
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true for bad input shape or range.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyReason) ||
		errors.Is(err, ErrUnknownLeaveType) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrDateOutOfPolicyWindow)
}

// IsPolicy returns true for business-rule violations.
func IsPolicy(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAlreadyDecided) ||
		errors.Is(err, ErrMissingRejectionReason) ||
		errors.Is(err, ErrDuplicateUser) ||
		errors.Is(err, ErrLastAdmin)
}

// IsNotFound returns true for missing users or requests.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrUnknownUser)
}

// IsPersistence returns true for snapshot I/O failures.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
