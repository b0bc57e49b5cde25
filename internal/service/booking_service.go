package service

import (
	"context"
	"time"

	"lendly/internal/database"
	"lendly/internal/domain"
	"lendly/internal/events"
	"lendly/internal/metrics"
	"lendly/internal/models"

	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle: creation checks, the approval
// state machine, access-scoped reads and the derived last/next annotations.
// Only this service writes booking rows.
type BookingService struct {
	repo         domain.Repository
	eventBus     domain.EventPublisher
	reportWorker domain.ReportWorker
	logger       *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, reportWorker domain.ReportWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:         repo,
		eventBus:     eventBus,
		reportWorker: reportWorker,
		logger:       logger,
	}
}

// bookingCheck is one creation invariant; checks run in a fixed order and the
// first failure aborts the operation.
type bookingCheck func(booking *models.Booking, item *models.Item, now time.Time) error

var createChecks = []bookingCheck{
	func(b *models.Booking, item *models.Item, _ time.Time) error {
		if b.BookerID == item.OwnerID {
			return database.ErrBookerIsOwner
		}
		return nil
	},
	func(_ *models.Booking, item *models.Item, _ time.Time) error {
		if !item.Available {
			return database.ErrNotAvailable
		}
		return nil
	},
	func(b *models.Booking, _ *models.Item, now time.Time) error {
		// start == end is accepted: only strictly inverted or past
		// intervals are refused.
		if b.Start.Before(now) || b.End.Before(now) || b.Start.After(b.End) {
			return database.ErrInvalidDates
		}
		return nil
	},
}

// CreateBooking validates and persists a new WAITING booking. The item's
// availability flag is not flipped; it only gates creation.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error) {
	booker, err := s.repo.GetUserByID(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Start:    start,
		End:      end,
		ItemID:   item.ID,
		BookerID: booker.ID,
		Status:   models.StatusWaiting,
	}

	now := time.Now()
	for _, check := range createChecks {
		if err := check(booking, item, now); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateBookingChecked(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", item.ID).
		Int64("booker_id", booker.ID).
		Msg("booking created")
	metrics.IncBookingCreated()

	s.publishEvent(events.EventBookingCreated, booking, bookerID)
	s.enqueueReport(ctx, booking.ID)

	return booking, nil
}

// ApproveBooking lets the item's owner approve or reject a WAITING booking.
// An already-approved booking refuses any further transition.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID, userID int64, approve bool) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID != user.ID {
		return nil, database.ErrNotOwner
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	decision := "rejected"
	if approve {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
		decision = "approved"
	}

	updated, err := s.repo.SetBookingStatusGuarded(ctx, bookingID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", bookingID).
		Str("decision", decision).
		Msg("booking decided")
	metrics.IncBookingDecision(decision)

	s.publishEvent(eventType, updated, userID)
	s.enqueueReport(ctx, bookingID)

	return updated, nil
}

// GetBooking returns the booking to its booker or to the item's owner.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}

	if booking.BookerID != user.ID && item.OwnerID != user.ID {
		return nil, database.ErrAccessBlocked
	}

	return booking, nil
}

// GetBookingsByBooker lists the user's own bookings, filtered and paged.
// The filter is evaluated against the clock at call time; `from` is a
// zero-based page index.
func (s *BookingService) GetBookingsByBooker(ctx context.Context, bookerID int64, filter string, from, size int) ([]*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, bookerID); err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetBookingsByBooker(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	return filterAndPage(bookings, filter, from, size)
}

// GetBookingsByItemOwner lists bookings of the caller's items, filtered and
// paged the same way as GetBookingsByBooker.
func (s *BookingService) GetBookingsByItemOwner(ctx context.Context, ownerID int64, filter string, from, size int) ([]*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetBookingsByItemOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return filterAndPage(bookings, filter, from, size)
}

// filterAndPage keeps the rows matching the filter (rows arrive id-descending
// from the store) and cuts out the requested page.
func filterAndPage(bookings []*models.Booking, filter string, from, size int) ([]*models.Booking, error) {
	f, ok := models.ParseBookingFilter(filter)
	if !ok {
		return nil, database.ErrUnknownStatus
	}

	now := time.Now()
	matched := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if f.Matches(b, now) {
			matched = append(matched, b)
		}
	}

	// from*size can overflow for huge page numbers; any page past the
	// matched set is empty either way.
	if from < 0 || size < 1 || from > len(matched)/size {
		return []*models.Booking{}, nil
	}
	start := from * size
	if start >= len(matched) {
		return []*models.Booking{}, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// AdjacentBookings derives the most recently ended and the soonest upcoming
// booking of the item. All statuses participate, including REJECTED. When two
// bookings share the boundary timestamp the pick is unspecified.
func (s *BookingService) AdjacentBookings(ctx context.Context, itemID int64) (*models.BookingRef, *models.BookingRef, error) {
	bookings, err := s.repo.GetBookingsByItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	var lastB, nextB *models.Booking
	for _, b := range bookings {
		if b.End.Before(now) {
			if lastB == nil || b.End.After(lastB.End) {
				lastB = b
			}
		}
		if b.Start.After(now) {
			if nextB == nil || b.Start.Before(nextB.Start) {
				nextB = b
			}
		}
	}

	return bookingRef(lastB), bookingRef(nextB), nil
}

func bookingRef(b *models.Booking) *models.BookingRef {
	if b == nil {
		return nil
	}
	return &models.BookingRef{ID: b.ID, BookerID: b.BookerID}
}

// HasCompletedBooking reports whether the user has a finished, non-rejected
// booking of the item. The item's current availability participates in the
// predicate as well (kept from the original behavior even though it reflects
// the flag now, not at rental time).
func (s *BookingService) HasCompletedBooking(ctx context.Context, userID, itemID int64) (bool, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return false, err
	}
	bookings, err := s.repo.GetBookingsByItem(ctx, itemID)
	if err != nil {
		return false, err
	}

	now := time.Now()
	for _, b := range bookings {
		if b.BookerID == userID &&
			b.Status != models.StatusRejected &&
			item.Available &&
			b.End.Before(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		Status:    booking.Status,
		Start:     booking.Start,
		End:       booking.End,
		ActorID:   actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueReport(ctx context.Context, bookingID int64) {
	if s.reportWorker == nil {
		return
	}

	if err := s.reportWorker.EnqueueTask(ctx, "refresh", bookingID); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("report enqueue error")
	}
}
