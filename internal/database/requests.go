package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lendly/internal/models"
)

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	query := `INSERT INTO item_requests (description, requester_id, created) VALUES (?, ?, ?)`
	if req.Created.IsZero() {
		req.Created = time.Now()
	}
	result, err := db.ExecContext(ctx, query, req.Description, req.RequesterID, req.Created)
	if err != nil {
		return fmt.Errorf("failed to create item request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id

	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	query := `SELECT id, description, requester_id, created FROM item_requests WHERE id = ?`
	var req models.ItemRequest
	err := db.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.Description, &req.RequesterID, &req.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get item request: %w", err)
	}
	return &req, nil
}

// GetRequestsByRequester returns the user's own requests, newest first.
func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	query := `SELECT id, description, requester_id, created FROM item_requests
              WHERE requester_id = ? ORDER BY created DESC`
	return db.queryRequests(ctx, query, requesterID)
}

// GetRequestsExcludingRequester returns other users' requests, newest first,
// with page-index pagination.
func (db *DB) GetRequestsExcludingRequester(ctx context.Context, requesterID int64, page, size int) ([]*models.ItemRequest, error) {
	query := `SELECT id, description, requester_id, created FROM item_requests
              WHERE requester_id != ? ORDER BY created DESC LIMIT ? OFFSET ?`
	return db.queryRequests(ctx, query, requesterID, size, pageOffset(page, size))
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query item requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.ItemRequest
	for rows.Next() {
		r := &models.ItemRequest{}
		if err := rows.Scan(&r.ID, &r.Description, &r.RequesterID, &r.Created); err != nil {
			return nil, fmt.Errorf("failed to scan item request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
