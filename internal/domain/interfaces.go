package domain

import (
	"context"
	"time"

	"lendly/internal/models"
)

// Repository is the storage surface consumed by the services. The concrete
// implementation lives in internal/database.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64, page, size int) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page, size int) ([]*models.Item, error)
	GetItemsByRequestID(ctx context.Context, requestID int64) ([]*models.Item, error)

	CreateBookingChecked(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	SetBookingStatusGuarded(ctx context.Context, id int64, status models.BookingStatus) (*models.Booking, error)
	GetBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error)
	GetBookingsByItemOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error)
	GetBookingsByItem(ctx context.Context, itemID int64) ([]*models.Booking, error)

	CreateRequest(ctx context.Context, req *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	GetRequestsExcludingRequester(ctx context.Context, requesterID int64, page, size int) ([]*models.ItemRequest, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]models.Comment, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReportWorker schedules regeneration of the bookings export after a
// lifecycle change.
type ReportWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64) error
}

// StateRepository tracks per-user API rate-limit windows.
type StateRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error)
	ApproveBooking(ctx context.Context, bookingID, userID int64, approve bool) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error)
	GetBookingsByBooker(ctx context.Context, bookerID int64, filter string, from, size int) ([]*models.Booking, error)
	GetBookingsByItemOwner(ctx context.Context, ownerID int64, filter string, from, size int) ([]*models.Booking, error)
	AdjacentBookings(ctx context.Context, itemID int64) (last, next *models.BookingRef, err error)
	HasCompletedBooking(ctx context.Context, userID, itemID int64) (bool, error)
}

type ItemService interface {
	AddItem(ctx context.Context, ownerID int64, item *models.Item) error
	UpdateItem(ctx context.Context, ownerID, itemID int64, update models.ItemUpdate) (*models.Item, error)
	GetItem(ctx context.Context, itemID, userID int64) (*models.ItemWithBookings, error)
	GetItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemWithBookings, error)
	Search(ctx context.Context, text string, from, size int) ([]*models.Item, error)
	AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, name, email *string) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type RequestService interface {
	AddRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequest, error)
	GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.RequestWithItems, error)
	GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.RequestWithItems, error)
	GetRequest(ctx context.Context, requestID, userID int64) (*models.RequestWithItems, error)
}
