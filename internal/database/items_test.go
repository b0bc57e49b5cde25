package database

import (
	"context"
	"fmt"
	"math"
	"testing"

	"lendly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	item := createTestItem(t, db, owner.ID, "drill", true)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "drill", got.Name)
	assert.True(t, got.Available)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Nil(t, got.RequestID)
}

func TestGetItemNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetItemByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	item := createTestItem(t, db, owner.ID, "drill", true)

	item.Name = "power drill"
	item.Available = false
	require.NoError(t, db.UpdateItem(ctx, item))

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "power drill", got.Name)
	assert.False(t, got.Available)
}

func TestGetItemsByOwnerPagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	for i := 0; i < 5; i++ {
		createTestItem(t, db, owner.ID, fmt.Sprintf("item-%d", i), true)
	}

	page0, err := db.GetItemsByOwner(ctx, owner.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page0, 2)
	assert.Equal(t, "item-0", page0[0].Name)

	page2, err := db.GetItemsByOwner(ctx, owner.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "item-4", page2[0].Name)

	// A page number whose offset would overflow clamps to an empty page.
	far, err := db.GetItemsByOwner(ctx, owner.ID, math.MaxInt, 11)
	require.NoError(t, err)
	assert.Empty(t, far)
}

func TestSearchItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	createTestItem(t, db, owner.ID, "Electric Drill", true)
	createTestItem(t, db, owner.ID, "drill bits", false)
	hammer := &models.Item{Name: "hammer", Description: "claw DRILL-proof handle", Available: true, OwnerID: owner.ID}
	require.NoError(t, db.CreateItem(ctx, hammer))

	found, err := db.SearchItems(ctx, "drill", 0, 10)
	require.NoError(t, err)
	// Unavailable items never match even when the text does.
	require.Len(t, found, 2)
	assert.Equal(t, "Electric Drill", found[0].Name)
	assert.Equal(t, "hammer", found[1].Name)
}

func TestGetItemsByRequestID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	requester := createTestUser(t, db, "Requester", "req@example.com")

	req := &models.ItemRequest{Description: "need a drill", RequesterID: requester.ID}
	require.NoError(t, db.CreateRequest(ctx, req))

	item := &models.Item{
		Name:        "drill",
		Description: "answers the request",
		Available:   true,
		OwnerID:     owner.ID,
		RequestID:   &req.ID,
	}
	require.NoError(t, db.CreateItem(ctx, item))
	createTestItem(t, db, owner.ID, "unrelated", true)

	items, err := db.GetItemsByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "drill", items[0].Name)
	require.NotNil(t, items[0].RequestID)
	assert.Equal(t, req.ID, *items[0].RequestID)
}
