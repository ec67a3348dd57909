package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

func testRequest(username string) leave.Request {
	return leave.Request{
		Username:  username,
		StartDate: leave.NewDate(2025, time.March, 10),
		EndDate:   leave.NewDate(2025, time.March, 12),
		LeaveType: "CL",
		Reason:    "trip",
	}
}

func TestStore_Create_AssignsFreshID(t *testing.T) {
	store := leave.NewStore()
	now := time.Now()

	id1 := store.Create(testRequest("alice"), now)
	id2 := store.Create(testRequest("alice"), now)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2, "ids must never collide")

	req, ok := store.Get(id1)
	require.True(t, ok)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, now, req.RequestedAt)
	assert.Nil(t, req.DecidedAt)
}

func TestStore_Create_IgnoresCallerSuppliedFields(t *testing.T) {
	// The id and status are assigned by the store, never by the caller.

	store := leave.NewStore()

	req := testRequest("alice")
	req.ID = "forged-id"
	req.Status = leave.StatusApproved
	req.AdminComment = "smuggled"

	id := store.Create(req, time.Now())
	assert.NotEqual(t, leave.RequestID("forged-id"), id)

	created, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, leave.StatusPending, created.Status)
	assert.Empty(t, created.AdminComment)
}

func TestStore_UpdateStatus_AbsentID(t *testing.T) {
	store := leave.NewStore()

	ok := store.UpdateStatus("missing", leave.StatusApproved, "", time.Now())
	assert.False(t, ok, "absent id reports false, not a panic")
}

func TestStore_UpdateStatus_SetsDecisionTimestamp(t *testing.T) {
	store := leave.NewStore()
	id := store.Create(testRequest("alice"), time.Now())

	decidedAt := time.Now().Add(time.Hour)
	ok := store.UpdateStatus(id, leave.StatusRejected, "short notice", decidedAt)
	require.True(t, ok)

	req, _ := store.Get(id)
	assert.Equal(t, leave.StatusRejected, req.Status)
	assert.Equal(t, "short notice", req.AdminComment)
	require.NotNil(t, req.DecidedAt)
	assert.Equal(t, decidedAt, *req.DecidedAt)
}

func TestStore_Listing_FiltersAndOrder(t *testing.T) {
	// GIVEN: three requests from two users, one approved and one rejected
	// THEN:  filters are pure and insertion order is preserved

	store := leave.NewStore()
	now := time.Now()

	a1 := store.Create(testRequest("alice"), now)
	b1 := store.Create(testRequest("bob"), now)
	a2 := store.Create(testRequest("alice"), now)

	store.UpdateStatus(a1, leave.StatusApproved, "", now)
	store.UpdateStatus(b1, leave.StatusRejected, "coverage", now)

	all := store.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, []leave.RequestID{a1, b1, a2}, []leave.RequestID{all[0].ID, all[1].ID, all[2].ID})

	byAlice := store.ListByUser("alice")
	require.Len(t, byAlice, 2)
	assert.Equal(t, a1, byAlice[0].ID)
	assert.Equal(t, a2, byAlice[1].ID)

	pending := store.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, a2, pending[0].ID)

	approved := store.ListApproved()
	require.Len(t, approved, 1)
	assert.Equal(t, a1, approved[0].ID)
}

func TestStore_DeleteAllForUser_Cascade(t *testing.T) {
	store := leave.NewStore()
	now := time.Now()

	store.Create(testRequest("alice"), now)
	bobID := store.Create(testRequest("bob"), now)
	store.Create(testRequest("alice"), now)

	store.DeleteAllForUser("alice")

	assert.Equal(t, 1, store.Len())
	assert.Empty(t, store.ListByUser("alice"))

	// Remaining requests are still reachable by id after reindexing.
	req, ok := store.Get(bobID)
	require.True(t, ok)
	assert.Equal(t, "bob", req.Username)
}

func TestStore_NewStoreFrom_ReloadsPersistedState(t *testing.T) {
	store := leave.NewStore()
	now := time.Now()
	id := store.Create(testRequest("alice"), now)
	store.Create(testRequest("bob"), now)

	reloaded := leave.NewStoreFrom(store.ListAll())

	assert.Equal(t, 2, reloaded.Len())
	req, ok := reloaded.Get(id)
	require.True(t, ok)
	assert.Equal(t, "alice", req.Username)
}
