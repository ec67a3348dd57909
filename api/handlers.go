/*
handlers.go - HTTP API handlers for the leave management system

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every business decision to the
  engine. No balance arithmetic or status transitions happen here.

ENDPOINTS:
  Auth:
    POST   /api/login                     Log in, returns session token
    POST   /api/logout                    Drop the session

  Self-service:
    GET    /api/me/balance                Own balance map
    GET    /api/me/requests               Own request history
    POST   /api/me/requests               Submit a leave request

  Calendar (any logged-in user):
    GET    /api/calendar/{year}/{month}          Month view
    GET    /api/calendar/{year}/{month}/summary  Month summary

  Admin:
    GET    /api/requests                  All requests (?status= filter)
    POST   /api/requests/{id}/approve     Approve a pending request
    POST   /api/requests/{id}/reject      Reject with a comment
    GET/POST /api/users, PUT/DELETE /api/users/{username}
    GET/POST /api/holidays, DELETE /api/holidays/{date}
    GET    /api/reports/usage|departments|monthly
    POST   /api/admin/backup              Timestamped backup artifacts
    POST   /api/admin/purge               Backup, then reset to admin only

ERROR HANDLING:
  Domain errors map onto HTTP status by kind:
  - validation (empty reason, bad range, policy window, unknown type): 400
  - not found (request, user): 404
  - policy (insufficient balance, already decided, missing comment): 409
  - persistence and everything else: 500
  Each kind is handled distinctly; there is no catch-all session reset.

SEE ALSO:
  - dto.go: Request/response data structures
  - session.go: Token registry
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/report"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *leave.Engine
	Sessions *Sessions
}

// NewHandler creates a handler around the given engine.
func NewHandler(engine *leave.Engine) *Handler {
	return &Handler{
		Engine:   engine,
		Sessions: NewSessions(),
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login verifies credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Engine.User(req.Username)
	if err != nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		// Same answer for unknown user and wrong password.
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	sess := h.Sessions.Create(user.Username, user.IsAdmin)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:    sess.Token,
		Username: sess.Username,
		IsAdmin:  sess.IsAdmin,
	})
}

// Logout drops the caller's session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.Sessions.fromRequest(r); ok {
		h.Sessions.Delete(sess.Token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (Session, bool) {
	sess, ok := h.Sessions.fromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not logged in", nil)
		return Session{}, false
	}
	return sess, true
}

func (h *Handler) adminSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	sess, ok := h.session(w, r)
	if !ok {
		return Session{}, false
	}
	if !sess.IsAdmin {
		writeError(w, http.StatusForbidden, "Admin access required", nil)
		return Session{}, false
	}
	return sess, true
}

// =============================================================================
// SELF-SERVICE HANDLERS
// =============================================================================

// GetMyBalance returns the caller's balance map.
func (h *Handler) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	balances, err := h.Engine.Balances(sess.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(balances))
}

// ListMyRequests returns the caller's request history in insertion order.
func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(h.Engine.RequestsByUser(sess.Username)))
}

// SubmitMyRequest submits a leave request for the caller.
func (h *Handler) SubmitMyRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := leave.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := leave.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	created, err := h.Engine.Submit(sess.Username, start, end, leave.TypeCode(req.LeaveType), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(created))
}

// =============================================================================
// ADMIN REQUEST HANDLERS
// =============================================================================

// ListRequests returns requests, optionally filtered by ?status=.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	var reqs []leave.Request
	switch r.URL.Query().Get("status") {
	case "pending":
		reqs = h.Engine.PendingRequests()
	case "approved":
		reqs = h.Engine.ApprovedRequests()
	case "":
		reqs = h.Engine.AllRequests()
	default:
		writeError(w, http.StatusBadRequest, "Unknown status filter", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// ApproveRequest approves a pending request, debiting the balance.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	id := leave.RequestID(chi.URLParam(r, "id"))
	if err := h.Engine.Decide(id, leave.StatusApproved, ""); err != nil {
		writeDomainError(w, err)
		return
	}
	req, err := h.Engine.Request(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// RejectRequest rejects a pending request with a mandatory comment.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	var body RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := leave.RequestID(chi.URLParam(r, "id"))
	if err := h.Engine.Decide(id, leave.StatusRejected, body.Comment); err != nil {
		writeDomainError(w, err)
		return
	}
	req, err := h.Engine.Request(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// USER MANAGEMENT HANDLERS
// =============================================================================

// ListUsers returns all users without password hashes.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	users := h.Engine.Users()
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser adds a user, hashing the supplied password.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "username, password and email are required", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}
	if err := h.Engine.CreateUser(req.Username, hash, req.Email, req.Department, req.IsAdmin, toBalanceMap(req.Balance)); err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := h.Engine.User(req.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// UpdateUser applies partial edits to a user.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := leave.UserUpdate{
		Email:      req.Email,
		Department: req.Department,
		Balance:    toBalanceMap(req.Balance),
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
			return
		}
		upd.PasswordHash = &hash
	}

	username := chi.URLParam(r, "username")
	if err := h.Engine.UpdateUser(username, upd); err != nil {
		writeDomainError(w, err)
		return
	}
	user, err := h.Engine.User(username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// DeleteUser removes a user and cascades to their requests.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.adminSession(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	if username == sess.Username {
		writeError(w, http.StatusConflict, "Cannot delete your own account", nil)
		return
	}
	if err := h.Engine.DeleteUser(username); err != nil {
		writeDomainError(w, err)
		return
	}
	h.Sessions.DeleteForUser(username)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all company holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}

	holidays := h.Engine.Holidays()
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{Date: hol.Date.String(), Description: hol.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday records a company-wide holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := leave.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required", nil)
		return
	}

	if err := h.Engine.AddHoliday(date, req.Description); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// DeleteHoliday removes all holidays on a date.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	date, err := leave.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	removed, err := h.Engine.RemoveHoliday(date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "No holiday on that date", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

func monthParams(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, err
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, strconv.ErrRange
	}
	return year, time.Month(month), nil
}

// GetCalendar returns the per-day month view.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}

	year, month, err := monthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year or month", err)
		return
	}
	state := h.Engine.State()
	writeJSON(w, http.StatusOK, calendar.MonthView(year, month, state.Requests, state.Holidays))
}

// GetCalendarSummary returns the month summary rollup.
func (h *Handler) GetCalendarSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}

	year, month, err := monthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year or month", err)
		return
	}
	state := h.Engine.State()
	view := calendar.MonthView(year, month, state.Requests, state.Holidays)
	writeJSON(w, http.StatusOK, calendar.MonthSummary(view))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetUsageReport returns usage-vs-balance rows.
func (h *Handler) GetUsageReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}
	state := h.Engine.State()
	writeJSON(w, http.StatusOK, report.UsageVsBalance(h.Engine.Types(), state.Users, state.Requests))
}

// GetDepartmentReport returns department averages.
func (h *Handler) GetDepartmentReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}
	state := h.Engine.State()
	writeJSON(w, http.StatusOK, report.DepartmentAnalysis(state.Users, state.Requests))
}

// GetMonthlyReport returns the monthly leave pattern.
func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.MonthlyPattern(h.Engine.AllRequests()))
}

// =============================================================================
// DATA MANAGEMENT HANDLERS
// =============================================================================

// TriggerBackup copies the persisted collections to timestamped artifacts.
func (h *Handler) TriggerBackup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}
	if err := h.Engine.Backup(); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeData backs up and resets to a single default admin. Every session
// except the caller's is dropped since those accounts no longer exist.
func (h *Handler) PurgeData(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.adminSession(w, r)
	if !ok {
		return
	}
	if err := h.Engine.Purge(); err != nil {
		writeDomainError(w, err)
		return
	}
	h.Sessions.Reset(sess.Token)
	zap.L().Info("data purged", zap.String("by", sess.Username))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP status by kind.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case leave.IsPolicy(err):
		writeError(w, http.StatusConflict, "Policy violation", err)
	case leave.IsPersistence(err):
		zap.L().Error("persistence failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Persistence failure", err)
	default:
		zap.L().Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
