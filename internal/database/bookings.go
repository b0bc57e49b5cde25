package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lendly/internal/models"
)

const bookingColumns = `id, start_date, end_date, item_id, booker_id, status, version`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (start_date, end_date, item_id, booker_id, status, version)
              VALUES (?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		booking.Start,
		booking.End,
		booking.ItemID,
		booking.BookerID,
		booking.Status,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Version = 1

	return nil
}

// CreateBookingChecked inserts the booking in a transaction that re-reads the
// item's availability, so a concurrent item update cannot slip between the
// service-level check and the insert.
func (db *DB) CreateBookingChecked(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var available bool
	err = tx.QueryRowContext(ctx, `SELECT available FROM items WHERE id = ?`, booking.ItemID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if !available {
		return ErrNotAvailable
	}

	query := `INSERT INTO bookings (start_date, end_date, item_id, booker_id, status, version)
              VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		booking.Start,
		booking.End,
		booking.ItemID,
		booking.BookerID,
		booking.Status,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// SetBookingStatusGuarded transitions the booking's status inside one
// transaction. The already-approved check and the write are not separable, so
// two concurrent approvals cannot both pass the check.
func (db *DB) SetBookingStatusGuarded(ctx context.Context, id int64, status models.BookingStatus) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking in tx: %w", err)
	}

	if booking.Status == models.StatusApproved {
		return nil, ErrAlreadyApproved
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1 WHERE id = ? AND version = ?`,
		status, id, booking.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	booking.Status = status
	booking.Version++
	return booking, nil
}

// GetBookingsByBooker returns all of the booker's bookings, newest id first.
func (db *DB) GetBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booker_id = ? ORDER BY id DESC`
	return db.queryBookings(ctx, query, bookerID)
}

// GetBookingsByItemOwner returns bookings of all items owned by ownerID,
// newest id first.
func (db *DB) GetBookingsByItemOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error) {
	query := `SELECT b.id, b.start_date, b.end_date, b.item_id, b.booker_id, b.status, b.version
              FROM bookings b
              INNER JOIN items i ON i.id = b.item_id
              WHERE i.owner_id = ?
              ORDER BY b.id DESC`
	return db.queryBookings(ctx, query, ownerID)
}

// GetBookingsByItem returns every booking of the item regardless of status.
func (db *DB) GetBookingsByItem(ctx context.Context, itemID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE item_id = ? ORDER BY id`
	return db.queryBookings(ctx, query, itemID)
}

// GetBookingReportRows returns every booking joined with its item and booker
// names, for the export worker.
func (db *DB) GetBookingReportRows(ctx context.Context) ([]models.BookingReportRow, error) {
	query := `SELECT b.id, i.name, u.name, b.start_date, b.end_date, b.status
              FROM bookings b
              INNER JOIN items i ON i.id = b.item_id
              INNER JOIN users u ON u.id = b.booker_id
              ORDER BY b.id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report rows: %w", err)
	}
	defer rows.Close()

	var report []models.BookingReportRow
	for rows.Next() {
		var r models.BookingReportRow
		if err := rows.Scan(&r.BookingID, &r.ItemName, &r.BookerName, &r.Start, &r.End, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(&b.ID, &b.Start, &b.End, &b.ItemID, &b.BookerID, &b.Status, &b.Version)
	if err != nil {
		return nil, err
	}
	return b, nil
}
