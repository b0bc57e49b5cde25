package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingFilter(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want BookingFilter
	}{
		{"ALL", FilterAll},
		{"all", FilterAll},
		{"Current", FilterCurrent},
		{"PAST", FilterPast},
		{"future", FilterFuture},
		{"WAITING", FilterWaiting},
		{"rejected", FilterRejected},
	} {
		got, ok := ParseBookingFilter(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, ok := ParseBookingFilter("APPROVED")
	assert.False(t, ok, "APPROVED is a status, not a filter")
	_, ok = ParseBookingFilter("bogus")
	assert.False(t, ok)
}

func TestBookingFilterMatches(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	booking := func(status BookingStatus, start, end time.Time) *Booking {
		return &Booking{Status: status, Start: start, End: end}
	}

	past := booking(StatusApproved, now.Add(-3*time.Hour), now.Add(-time.Hour))
	running := booking(StatusApproved, now.Add(-time.Hour), now.Add(time.Hour))
	upcoming := booking(StatusApproved, now.Add(time.Hour), now.Add(2*time.Hour))
	waitingFuture := booking(StatusWaiting, now.Add(time.Hour), now.Add(2*time.Hour))
	rejectedRunning := booking(StatusRejected, now.Add(-time.Hour), now.Add(time.Hour))
	waitingRunning := booking(StatusWaiting, now.Add(-time.Hour), now.Add(time.Hour))
	rejectedPast := booking(StatusRejected, now.Add(-3*time.Hour), now.Add(-time.Hour))

	// ALL takes everything.
	for _, b := range []*Booking{past, running, upcoming, waitingFuture, rejectedRunning} {
		assert.True(t, FilterAll.Matches(b, now))
	}

	// FUTURE: approved or waiting, strictly ahead.
	assert.True(t, FilterFuture.Matches(upcoming, now))
	assert.True(t, FilterFuture.Matches(waitingFuture, now))
	assert.False(t, FilterFuture.Matches(running, now))
	assert.False(t, FilterFuture.Matches(booking(StatusRejected, now.Add(time.Hour), now.Add(2*time.Hour)), now))

	// CURRENT: approved or rejected, interval straddling now. A waiting
	// booking in that interval is excluded.
	assert.True(t, FilterCurrent.Matches(running, now))
	assert.True(t, FilterCurrent.Matches(rejectedRunning, now))
	assert.False(t, FilterCurrent.Matches(waitingRunning, now))
	assert.False(t, FilterCurrent.Matches(past, now))

	// PAST: approved only.
	assert.True(t, FilterPast.Matches(past, now))
	assert.False(t, FilterPast.Matches(rejectedPast, now))
	assert.False(t, FilterPast.Matches(running, now))

	// Exact status filters.
	assert.True(t, FilterWaiting.Matches(waitingRunning, now))
	assert.False(t, FilterWaiting.Matches(running, now))
	assert.True(t, FilterRejected.Matches(rejectedPast, now))
	assert.False(t, FilterRejected.Matches(past, now))
}
