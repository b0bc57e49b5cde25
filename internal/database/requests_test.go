package database

import (
	"context"
	"testing"
	"time"

	"lendly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetRequest(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "Requester", "req@example.com")
	req := &models.ItemRequest{Description: "need a drill", RequesterID: requester.ID}
	require.NoError(t, db.CreateRequest(ctx, req))
	require.NotZero(t, req.ID)
	assert.False(t, req.Created.IsZero())

	got, err := db.GetRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "need a drill", got.Description)
	assert.Equal(t, requester.ID, got.RequesterID)
}

func TestGetRequestNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRequestByID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestGetRequestsByRequesterNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	requester := createTestUser(t, db, "Requester", "req@example.com")
	old := &models.ItemRequest{
		Description: "older",
		RequesterID: requester.ID,
		Created:     time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.CreateRequest(ctx, old))
	recent := &models.ItemRequest{Description: "newer", RequesterID: requester.ID}
	require.NoError(t, db.CreateRequest(ctx, recent))

	requests, err := db.GetRequestsByRequester(ctx, requester.ID)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "newer", requests[0].Description)
	assert.Equal(t, "older", requests[1].Description)
}

func TestGetRequestsExcludingRequester(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	mine := &models.ItemRequest{Description: "mine", RequesterID: alice.ID}
	require.NoError(t, db.CreateRequest(ctx, mine))
	theirs := &models.ItemRequest{Description: "theirs", RequesterID: bob.ID}
	require.NoError(t, db.CreateRequest(ctx, theirs))

	requests, err := db.GetRequestsExcludingRequester(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "theirs", requests[0].Description)

	empty, err := db.GetRequestsExcludingRequester(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
