package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"lendly/internal/config"
	"lendly/internal/database"
	"lendly/internal/models"
	"lendly/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bookings := service.NewBookingService(db, nil, nil, &logger)
	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, bookings, nil, &logger)
	requests := service.NewRequestService(db, &logger)

	cfg := config.APIConfig{Port: 0}
	server := NewHTTPServer(cfg, users, items, bookings, requests, nil, &logger)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func doJSON(t *testing.T, method, url string, userID int64, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set(userIDHeader, strconv.FormatInt(userID, 10))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func createUserViaAPI(t *testing.T, baseURL, name, email string) models.User {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/users", 0, map[string]string{"name": name, "email": email})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user models.User
	decodeInto(t, resp, &user)
	return user
}

func createItemViaAPI(t *testing.T, baseURL string, ownerID int64, name string, available bool) models.Item {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/items", ownerID, map[string]any{
		"name":        name,
		"description": name + " description",
		"available":   available,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item models.Item
	decodeInto(t, resp, &item)
	return item
}

func TestUserEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	user := createUserViaAPI(t, ts.URL, "Alice", "alice@example.com")
	assert.NotZero(t, user.ID)

	// Duplicate email conflicts.
	resp := doJSON(t, http.MethodPost, ts.URL+"/users", 0, map[string]string{"name": "Imposter", "email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Malformed email is a client error.
	resp = doJSON(t, http.MethodPost, ts.URL+"/users", 0, map[string]string{"name": "Bob", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/users/%d", ts.URL, user.ID), 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.User
	decodeInto(t, resp, &got)
	assert.Equal(t, "Alice", got.Name)

	resp = doJSON(t, http.MethodGet, ts.URL+"/users/999", 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/users/%d", ts.URL, user.ID), 0, map[string]string{"name": "Alice B"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, resp, &got)
	assert.Equal(t, "Alice B", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/users/%d", ts.URL, user.ID), 0, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestItemEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	owner := createUserViaAPI(t, ts.URL, "Owner", "owner@example.com")
	stranger := createUserViaAPI(t, ts.URL, "Stranger", "stranger@example.com")
	item := createItemViaAPI(t, ts.URL, owner.ID, "drill", true)

	// The user header is mandatory for item creation.
	resp := doJSON(t, http.MethodPost, ts.URL+"/items", 0, map[string]any{
		"name": "x", "description": "y", "available": true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// A non-owner cannot patch, and learns nothing from the status.
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/items/%d", ts.URL, item.ID), stranger.ID, map[string]any{"name": "mine now"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/items/%d", ts.URL, item.ID), owner.ID, map[string]any{"available": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Item
	decodeInto(t, resp, &updated)
	assert.False(t, updated.Available)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/items/%d", ts.URL, item.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view models.ItemWithBookings
	decodeInto(t, resp, &view)
	assert.Equal(t, "drill", view.Name)

	resp = doJSON(t, http.MethodGet, ts.URL+"/items?from=0&size=10", owner.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.ItemWithBookings
	decodeInto(t, resp, &list)
	assert.Len(t, list, 1)
}

func TestSearchEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	owner := createUserViaAPI(t, ts.URL, "Owner", "owner@example.com")
	createItemViaAPI(t, ts.URL, owner.ID, "drill", true)
	createItemViaAPI(t, ts.URL, owner.ID, "hidden drill", false)

	resp := doJSON(t, http.MethodGet, ts.URL+"/items/search?text=drill", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found []models.Item
	decodeInto(t, resp, &found)
	assert.Len(t, found, 1)

	resp = doJSON(t, http.MethodGet, ts.URL+"/items/search?text=", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, resp, &found)
	assert.Empty(t, found)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	owner := createUserViaAPI(t, ts.URL, "Owner", "owner@example.com")
	booker := createUserViaAPI(t, ts.URL, "Booker", "booker@example.com")
	item := createItemViaAPI(t, ts.URL, owner.ID, "drill", true)

	start := time.Now().Add(time.Hour).UTC()
	end := start.Add(2 * time.Hour)

	// The owner cannot book their own item.
	resp := doJSON(t, http.MethodPost, ts.URL+"/bookings", owner.ID, map[string]any{
		"item_id": item.ID, "start": start, "end": end,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/bookings", booker.ID, map[string]any{
		"item_id": item.ID, "start": start, "end": end,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var booking models.Booking
	decodeInto(t, resp, &booking)
	assert.Equal(t, models.StatusWaiting, booking.Status)

	// Inverted dates are refused.
	resp = doJSON(t, http.MethodPost, ts.URL+"/bookings", booker.ID, map[string]any{
		"item_id": item.ID, "start": end, "end": start,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Only the owner decides.
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/bookings/%d?approved=true", ts.URL, booking.ID), booker.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/bookings/%d?approved=true", ts.URL, booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, resp, &booking)
	assert.Equal(t, models.StatusApproved, booking.Status)

	// A second decision is rejected either way.
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/bookings/%d?approved=false", ts.URL, booking.ID), owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/bookings?state=ALL", booker.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Booking
	decodeInto(t, resp, &list)
	assert.Len(t, list, 1)

	resp = doJSON(t, http.MethodGet, ts.URL+"/bookings/owner", owner.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, resp, &list)
	assert.Len(t, list, 1)

	resp = doJSON(t, http.MethodGet, ts.URL+"/bookings?state=NONSENSE", booker.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRequestEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := createUserViaAPI(t, ts.URL, "Alice", "alice@example.com")
	bob := createUserViaAPI(t, ts.URL, "Bob", "bob@example.com")

	resp := doJSON(t, http.MethodPost, ts.URL+"/requests", alice.ID, map[string]string{"description": "need a drill"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var req models.ItemRequest
	decodeInto(t, resp, &req)
	require.NotZero(t, req.ID)

	resp = doJSON(t, http.MethodPost, ts.URL+"/requests", alice.ID, map[string]string{"description": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/requests", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var own []models.RequestWithItems
	decodeInto(t, resp, &own)
	assert.Len(t, own, 1)

	resp = doJSON(t, http.MethodGet, ts.URL+"/requests/all", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var others []models.RequestWithItems
	decodeInto(t, resp, &others)
	assert.Len(t, others, 1)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/requests/%d", ts.URL, req.ID), bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view models.RequestWithItems
	decodeInto(t, resp, &view)
	assert.Equal(t, "need a drill", view.Description)
}

func TestCommentOverHTTP(t *testing.T) {
	ts, db := newTestServer(t)

	owner := createUserViaAPI(t, ts.URL, "Owner", "owner@example.com")
	booker := createUserViaAPI(t, ts.URL, "Booker", "booker@example.com")
	item := createItemViaAPI(t, ts.URL, owner.ID, "drill", true)

	// No completed booking yet.
	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/items/%d/comment", ts.URL, item.ID), booker.ID, map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	now := time.Now()
	finished := &models.Booking{
		Start:    now.Add(-3 * time.Hour),
		End:      now.Add(-time.Hour),
		ItemID:   item.ID,
		BookerID: booker.ID,
		Status:   models.StatusApproved,
	}
	require.NoError(t, db.CreateBooking(context.Background(), finished))

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/items/%d/comment", ts.URL, item.ID), booker.ID, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decodeInto(t, resp, &comment)
	assert.Equal(t, "Booker", comment.AuthorName)
}

func TestRequestIDHeaderEcho(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))

	// Without a client-supplied id one is generated.
	resp2, err := http.Get(ts.URL + "/users")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.NotEmpty(t, resp2.Header.Get(requestIDHeader))
}
