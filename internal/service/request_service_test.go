package service

import (
	"context"
	"testing"

	"lendly/internal/database"
	"lendly/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestService(db *database.DB) *RequestService {
	logger := zerolog.Nop()
	return NewRequestService(db, &logger)
}

func TestAddRequest(t *testing.T) {
	db := newTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	requester := seedUser(t, db, "Requester", "req@example.com")

	req, err := svc.AddRequest(ctx, requester.ID, "need a drill")
	require.NoError(t, err)
	assert.NotZero(t, req.ID)
	assert.False(t, req.Created.IsZero())

	_, err = svc.AddRequest(ctx, 999, "orphan")
	assert.ErrorIs(t, err, database.ErrUserNotFound)
}

func TestGetOwnAndOtherRequests(t *testing.T) {
	db := newTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	owner := seedUser(t, db, "Owner", "owner@example.com")

	aliceReq, err := svc.AddRequest(ctx, alice.ID, "need a drill")
	require.NoError(t, err)
	_, err = svc.AddRequest(ctx, bob.ID, "need a saw")
	require.NoError(t, err)

	// An item offered against Alice's request shows up on the views.
	item := &models.Item{
		Name:        "drill",
		Description: "answers",
		Available:   true,
		OwnerID:     owner.ID,
		RequestID:   &aliceReq.ID,
	}
	require.NoError(t, db.CreateItem(ctx, item))

	own, err := svc.GetOwnRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Len(t, own[0].Items, 1)
	assert.Equal(t, "drill", own[0].Items[0].Name)

	others, err := svc.GetOtherRequests(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "need a saw", others[0].Description)
	assert.Empty(t, others[0].Items)

	_, err = svc.GetOwnRequests(ctx, 999)
	assert.ErrorIs(t, err, database.ErrUserNotFound)
}

func TestGetRequest(t *testing.T) {
	db := newTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")

	req, err := svc.AddRequest(ctx, alice.ID, "need a drill")
	require.NoError(t, err)

	// Any existing user may look at any request.
	view, err := svc.GetRequest(ctx, req.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "need a drill", view.Description)

	_, err = svc.GetRequest(ctx, 999, alice.ID)
	assert.ErrorIs(t, err, database.ErrRequestNotFound)

	_, err = svc.GetRequest(ctx, req.ID, 999)
	assert.ErrorIs(t, err, database.ErrUserNotFound)
}
