package models

import (
	"strings"
	"time"
)

// BookingStatus is the persisted workflow state of a booking. It is distinct
// from BookingFilter: a status is stored, a filter only selects.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

type Booking struct {
	ID       int64         `json:"id"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	ItemID   int64         `json:"item_id"`
	BookerID int64         `json:"booker_id"`
	Status   BookingStatus `json:"status"`
	Version  int64         `json:"version"`
}

// BookingReportRow is one line of the bookings export.
type BookingReportRow struct {
	BookingID  int64
	ItemName   string
	BookerName string
	Start      time.Time
	End        time.Time
	Status     BookingStatus
}

// BookingFilter is a query-time selector for booking lists. It is never
// persisted on a booking.
type BookingFilter string

const (
	FilterAll      BookingFilter = "ALL"
	FilterCurrent  BookingFilter = "CURRENT"
	FilterPast     BookingFilter = "PAST"
	FilterFuture   BookingFilter = "FUTURE"
	FilterWaiting  BookingFilter = "WAITING"
	FilterRejected BookingFilter = "REJECTED"
)

// ParseBookingFilter resolves a filter token case-insensitively. The second
// return value reports whether the token is known.
func ParseBookingFilter(s string) (BookingFilter, bool) {
	switch BookingFilter(strings.ToUpper(s)) {
	case FilterAll:
		return FilterAll, true
	case FilterCurrent:
		return FilterCurrent, true
	case FilterPast:
		return FilterPast, true
	case FilterFuture:
		return FilterFuture, true
	case FilterWaiting:
		return FilterWaiting, true
	case FilterRejected:
		return FilterRejected, true
	}
	return "", false
}

// Matches reports whether the booking satisfies the filter at the given
// moment. Scoping by booker or owner is the caller's responsibility.
func (f BookingFilter) Matches(b *Booking, now time.Time) bool {
	switch f {
	case FilterAll:
		return true
	case FilterFuture:
		return (b.Status == StatusApproved || b.Status == StatusWaiting) && b.Start.After(now)
	case FilterCurrent:
		return (b.Status == StatusApproved || b.Status == StatusRejected) &&
			b.Start.Before(now) && b.End.After(now)
	case FilterPast:
		return b.Status == StatusApproved && b.End.Before(now)
	case FilterWaiting:
		return b.Status == StatusWaiting
	case FilterRejected:
		return b.Status == StatusRejected
	}
	return false
}
