package database

import "errors"

// Not-found family: the caller supplied an id with no live record behind it.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrRequestNotFound = errors.New("item request not found")
)

// Conflict family: the request is well-formed but violates a business rule.
var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrBookerIsOwner   = errors.New("booker is the item owner")
	ErrNotAvailable    = errors.New("item is not available")
	ErrInvalidDates    = errors.New("incorrect booking dates")
	ErrAlreadyApproved = errors.New("booking already approved")
	ErrNotBooked       = errors.New("user has no completed booking of the item")
)

// Authorization family.
var (
	ErrNotOwner      = errors.New("user is not the item owner")
	ErrAccessBlocked = errors.New("booking access blocked")
)

var (
	ErrUnknownStatus = errors.New("unknown booking state")

	// ErrConcurrentModification signals a lost optimistic-version race.
	ErrConcurrentModification = errors.New("booking was modified concurrently")
)
