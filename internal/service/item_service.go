package service

import (
	"context"
	"strings"

	"lendly/internal/database"
	"lendly/internal/domain"
	"lendly/internal/events"
	"lendly/internal/models"

	"github.com/rs/zerolog"
)

// ItemService manages the item catalog and the comment ledger. Adjacent
// booking annotations are delegated to the booking service so that all
// booking reads go through one place.
type ItemService struct {
	repo     domain.Repository
	bookings domain.BookingService
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, bookings domain.BookingService, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		bookings: bookings,
		eventBus: eventBus,
		logger:   logger,
	}
}

// AddItem registers a new item for the owner. When the item answers a
// request board entry the request must exist.
func (s *ItemService) AddItem(ctx context.Context, ownerID int64, item *models.Item) error {
	owner, err := s.repo.GetUserByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if item.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *item.RequestID); err != nil {
			return err
		}
	}

	item.OwnerID = owner.ID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", owner.ID).Msg("item created")
	return nil
}

// UpdateItem applies a partial update. Only the owner may edit; nil fields
// keep their stored value.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, update models.ItemUpdate) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, database.ErrNotOwner
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.Available != nil {
		item.Available = *update.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns the item with its comments. Last/next booking refs are
// attached only when the caller owns the item.
func (s *ItemService) GetItem(ctx context.Context, itemID, userID int64) (*models.ItemWithBookings, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	view := &models.ItemWithBookings{Item: *item}

	if item.OwnerID == userID {
		last, next, err := s.bookings.AdjacentBookings(ctx, itemID)
		if err != nil {
			return nil, err
		}
		view.LastBooking = last
		view.NextBooking = next
	}

	comments, err := s.repo.GetCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	view.Comments = comments

	return view, nil
}

// GetItemsByOwner lists the owner's items with booking annotations; `from`
// is a zero-based page index.
func (s *ItemService) GetItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemWithBookings, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByOwner(ctx, ownerID, from, size)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ItemWithBookings, 0, len(items))
	for _, item := range items {
		last, next, err := s.bookings.AdjacentBookings(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, &models.ItemWithBookings{
			Item:        *item,
			LastBooking: last,
			NextBooking: next,
			Comments:    comments,
		})
	}
	return views, nil
}

// Search finds available items by substring match on name or description.
// A blank query returns an empty list without touching the store.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, from, size)
}

// AddComment records a review. Only users with a finished, non-rejected
// booking of the item may comment.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error) {
	author, err := s.repo.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}

	eligible, err := s.bookings.HasCompletedBooking(ctx, authorID, itemID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, database.ErrNotBooked
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, comment); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	return comment, nil
}
