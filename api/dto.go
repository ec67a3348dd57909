/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Shape validation (dates parse, fields present) happens in handlers;
  business validation (balances, policy windows) belongs to the engine.
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest carries the credentials for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the issued session token.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// SubmitRequest is the body for submitting a leave request.
type SubmitRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	LeaveType string `json:"leave_type"`
	Reason    string `json:"reason"`
}

// RejectRequest carries the mandatory rejection comment.
type RejectRequest struct {
	Comment string `json:"comment"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Duration     int    `json:"duration"`
	LeaveType    string `json:"leave_type"`
	Reason       string `json:"reason"`
	Status       string `json:"status"`
	AdminComment string `json:"admin_comment,omitempty"`
	RequestedAt  string `json:"requested_at"`
	DecidedAt    string `json:"decided_at,omitempty"`
}

// =============================================================================
// USERS & HOLIDAYS
// =============================================================================

// UserDTO represents a user in API responses. The password hash stays out.
type UserDTO struct {
	Username   string         `json:"username"`
	Email      string         `json:"email"`
	Department string         `json:"department"`
	IsAdmin    bool           `json:"is_admin"`
	Balance    map[string]int `json:"balance,omitempty"`
}

// CreateUserRequest is the admin request to add a user.
type CreateUserRequest struct {
	Username   string         `json:"username"`
	Password   string         `json:"password"`
	Email      string         `json:"email"`
	Department string         `json:"department"`
	IsAdmin    bool           `json:"is_admin"`
	Balance    map[string]int `json:"balance,omitempty"`
}

// UpdateUserRequest carries optional user edits; nil fields are untouched.
type UpdateUserRequest struct {
	Email      *string        `json:"email,omitempty"`
	Department *string        `json:"department,omitempty"`
	Password   *string        `json:"password,omitempty"`
	Balance    map[string]int `json:"balance,omitempty"`
}

// HolidayDTO represents a company holiday.
type HolidayDTO struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRequestDTO(r leave.Request) RequestDTO {
	dto := RequestDTO{
		ID:           string(r.ID),
		Username:     r.Username,
		StartDate:    r.StartDate.String(),
		EndDate:      r.EndDate.String(),
		Duration:     r.Duration(),
		LeaveType:    string(r.LeaveType),
		Reason:       r.Reason,
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		RequestedAt:  r.RequestedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = r.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toRequestDTOs(reqs []leave.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

func toUserDTO(u leave.User) UserDTO {
	dto := UserDTO{
		Username:   u.Username,
		Email:      u.Email,
		Department: u.Department,
		IsAdmin:    u.IsAdmin,
	}
	if !u.IsAdmin {
		dto.Balance = toBalanceDTO(u.Balance)
	}
	return dto
}

func toBalanceDTO(balance map[leave.TypeCode]int) map[string]int {
	out := make(map[string]int, len(balance))
	for code, days := range balance {
		out[string(code)] = days
	}
	return out
}

func toBalanceMap(balance map[string]int) map[leave.TypeCode]int {
	if balance == nil {
		return nil
	}
	out := make(map[leave.TypeCode]int, len(balance))
	for code, days := range balance {
		out[leave.TypeCode(code)] = days
	}
	return out
}
