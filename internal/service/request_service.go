package service

import (
	"context"

	"lendly/internal/domain"
	"lendly/internal/models"

	"github.com/rs/zerolog"
)

// RequestService runs the request board: wanted-item posts and the items
// offered in answer to them.
type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger}
}

func (s *RequestService) AddRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequest, error) {
	requester, err := s.repo.GetUserByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	req := &models.ItemRequest{
		Description: description,
		RequesterID: requester.ID,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", req.ID).Int64("requester_id", requester.ID).Msg("request created")
	return req, nil
}

// GetOwnRequests lists the caller's posts, newest first, each with the items
// offered against it.
func (s *RequestService) GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.RequestWithItems, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// GetOtherRequests pages through everyone else's posts, newest first.
func (s *RequestService) GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.RequestWithItems, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsExcludingRequester(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// GetRequest returns a single post with its offered items; any existing user
// may look.
func (s *RequestService) GetRequest(ctx context.Context, requestID, userID int64) (*models.RequestWithItems, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	views, err := s.withItems(ctx, []*models.ItemRequest{req})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *RequestService) withItems(ctx context.Context, requests []*models.ItemRequest) ([]*models.RequestWithItems, error) {
	views := make([]*models.RequestWithItems, 0, len(requests))
	for _, req := range requests {
		items, err := s.repo.GetItemsByRequestID(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		offered := make([]models.Item, 0, len(items))
		for _, item := range items {
			offered = append(offered, *item)
		}
		views = append(views, &models.RequestWithItems{ItemRequest: *req, Items: offered})
	}
	return views, nil
}
