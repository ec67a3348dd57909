package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testToday = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *chi.Mux {
	t.Helper()

	adminHash, err := auth.HashPassword("adminpass")
	require.NoError(t, err)

	engine, err := leave.New(leave.Config{
		Admin: leave.User{
			Username:     "admin",
			PasswordHash: adminHash,
			Email:        "admin@company.com",
			Department:   "Administration",
		},
		Now: func() time.Time { return testToday },
	})
	require.NoError(t, err)

	aliceHash, err := auth.HashPassword("alicepass")
	require.NoError(t, err)
	require.NoError(t, engine.CreateUser("alice", aliceHash, "alice@company.com", "Engineering", false, nil))

	return api.NewRouter(api.NewHandler(engine))
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestLogin_InvalidCredentials(t *testing.T) {
	// Unknown user and wrong password get the same answer.

	router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"username": "ghost", "password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_Boundaries(t *testing.T) {
	router := newTestServer(t)
	aliceToken := login(t, router, "alice", "alicepass")

	// No token on a protected route.
	rec := do(t, router, http.MethodGet, "/api/me/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Non-admin on an admin route.
	rec = do(t, router, http.MethodGet, "/api/requests/", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/reports/usage", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, router, http.MethodPost, "/api/admin/purge", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	router := newTestServer(t)
	token := login(t, router, "alice", "alicepass")

	rec := do(t, router, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/me/balance", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// REQUEST LIFECYCLE FLOW
// =============================================================================

func TestFlow_SubmitApprove(t *testing.T) {
	// GIVEN: alice logged in with CL=12
	// WHEN:  she submits a 3-day request and the admin approves it
	// THEN:  the request moves Pending -> Approved, CL drops to 9 and a
	//        second approval attempt is refused with 409

	router := newTestServer(t)
	aliceToken := login(t, router, "alice", "alicepass")
	adminToken := login(t, router, "admin", "adminpass")

	rec := do(t, router, http.MethodPost, "/api/me/requests", aliceToken, map[string]string{
		"start_date": "2025-03-10",
		"end_date":   "2025-03-12",
		"leave_type": "CL",
		"reason":     "trip",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.RequestDTO](t, rec)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, 3, created.Duration)

	// The admin sees it in the pending list.
	rec = do(t, router, http.MethodGet, "/api/requests/?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]api.RequestDTO](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	rec = do(t, router, http.MethodPost, "/api/requests/"+created.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[api.RequestDTO](t, rec)
	assert.Equal(t, "Approved", approved.Status)
	assert.NotEmpty(t, approved.DecidedAt)

	rec = do(t, router, http.MethodGet, "/api/me/balance", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[map[string]int](t, rec)
	assert.Equal(t, 9, balance["CL"])

	// Approving twice is a policy violation, not a success or a 500.
	rec = do(t, router, http.MethodPost, "/api/requests/"+created.ID+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFlow_RejectNeedsComment(t *testing.T) {
	router := newTestServer(t)
	aliceToken := login(t, router, "alice", "alicepass")
	adminToken := login(t, router, "admin", "adminpass")

	rec := do(t, router, http.MethodPost, "/api/me/requests", aliceToken, map[string]string{
		"start_date": "2025-03-10",
		"end_date":   "2025-03-10",
		"leave_type": "SL",
		"reason":     "checkup",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[api.RequestDTO](t, rec)

	rec = do(t, router, http.MethodPost, "/api/requests/"+created.ID+"/reject", adminToken, map[string]string{
		"comment": "",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/requests/"+created.ID+"/reject", adminToken, map[string]string{
		"comment": "team is at capacity",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rejected := decode[api.RequestDTO](t, rec)
	assert.Equal(t, "Rejected", rejected.Status)
	assert.Equal(t, "team is at capacity", rejected.AdminComment)

	// The rejection never touched the balance.
	rec = do(t, router, http.MethodGet, "/api/me/balance", aliceToken, nil)
	balance := decode[map[string]int](t, rec)
	assert.Equal(t, 12, balance["SL"])
}

func TestSubmit_ErrorStatusMapping(t *testing.T) {
	router := newTestServer(t)
	aliceToken := login(t, router, "alice", "alicepass")
	adminToken := login(t, router, "admin", "adminpass")

	submit := func(start, end, code, reason string) *httptest.ResponseRecorder {
		return do(t, router, http.MethodPost, "/api/me/requests", aliceToken, map[string]string{
			"start_date": start, "end_date": end, "leave_type": code, "reason": reason,
		})
	}

	// Malformed date, empty reason, unknown type and out-of-window starts
	// are all client errors.
	assert.Equal(t, http.StatusBadRequest, submit("not-a-date", "2025-03-12", "CL", "trip").Code)
	assert.Equal(t, http.StatusBadRequest, submit("2025-03-10", "2025-03-12", "CL", "  ").Code)
	assert.Equal(t, http.StatusBadRequest, submit("2025-03-10", "2025-03-12", "XX", "trip").Code)
	assert.Equal(t, http.StatusBadRequest, submit("2025-03-03", "2025-03-04", "CL", "too soon").Code)

	// OH only has 2 default days; asking for 3 is a policy conflict.
	assert.Equal(t, http.StatusConflict, submit("2025-03-10", "2025-03-12", "OH", "trip").Code)

	// Deciding a request that does not exist is a 404.
	rec := do(t, router, http.MethodPost, "/api/requests/missing/approve", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// USER MANAGEMENT
// =============================================================================

func TestUsers_CreateListDelete(t *testing.T) {
	router := newTestServer(t)
	adminToken := login(t, router, "admin", "adminpass")

	rec := do(t, router, http.MethodPost, "/api/users/", adminToken, map[string]any{
		"username":   "bob",
		"password":   "bobpass",
		"email":      "bob@company.com",
		"department": "Sales",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.UserDTO](t, rec)
	assert.Equal(t, "bob", created.Username)
	assert.Equal(t, 12, created.Balance["CL"], "defaults applied when no balance given")

	// The new account can log in right away.
	login(t, router, "bob", "bobpass")

	// Password hashes never leave the server.
	rec = do(t, router, http.MethodGet, "/api/users/", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	// Duplicate usernames are refused.
	rec = do(t, router, http.MethodPost, "/api/users/", adminToken, map[string]any{
		"username": "bob", "password": "x", "email": "x@company.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/users/bob", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUsers_DeleteGuards(t *testing.T) {
	router := newTestServer(t)
	adminToken := login(t, router, "admin", "adminpass")

	// Self-deletion is refused before the engine ever sees it.
	rec := do(t, router, http.MethodDelete, "/api/users/admin", adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/users/ghost", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_DeleteDropsSessions(t *testing.T) {
	router := newTestServer(t)
	adminToken := login(t, router, "admin", "adminpass")
	aliceToken := login(t, router, "alice", "alicepass")

	rec := do(t, router, http.MethodDelete, "/api/users/alice", adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/me/balance", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// HOLIDAYS AND CALENDAR
// =============================================================================

func TestHolidays_CrudAndCalendar(t *testing.T) {
	router := newTestServer(t)
	aliceToken := login(t, router, "alice", "alicepass")
	adminToken := login(t, router, "admin", "adminpass")

	rec := do(t, router, http.MethodPost, "/api/holidays/", adminToken, map[string]string{
		"date": "2025-03-17", "description": "Founders Day",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Non-admins can read holidays but not write them.
	rec = do(t, router, http.MethodGet, "/api/holidays/", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	holidays := decode[[]api.HolidayDTO](t, rec)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Founders Day", holidays[0].Description)

	rec = do(t, router, http.MethodPost, "/api/holidays/", aliceToken, map[string]string{
		"date": "2025-03-18", "description": "Nope",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The holiday appears on the calendar for any logged-in user.
	rec = do(t, router, http.MethodGet, "/api/calendar/2025/3", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Founders Day")

	rec = do(t, router, http.MethodDelete, "/api/holidays/2025-03-17", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/holidays/2025-03-17", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendar_InvalidMonth(t *testing.T) {
	router := newTestServer(t)
	token := login(t, router, "alice", "alicepass")

	rec := do(t, router, http.MethodGet, "/api/calendar/2025/13", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ADMIN DATA MANAGEMENT
// =============================================================================

func TestPurge_ResetsStateAndSessions(t *testing.T) {
	// GIVEN: alice has a session and pending data
	// WHEN:  the admin purges
	// THEN:  only the admin account and the caller's session survive

	router := newTestServer(t)
	aliceToken := login(t, router, "alice", "alicepass")
	adminToken := login(t, router, "admin", "adminpass")

	rec := do(t, router, http.MethodPost, "/api/admin/purge", adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/users/", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]api.UserDTO](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)

	rec = do(t, router, http.MethodGet, "/api/me/balance", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
