package models

import "time"

// ItemRequest is a wish-list entry: a user asks for an item, other users may
// respond by listing an item that references the request.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequesterID int64     `json:"requester_id"`
	Created     time.Time `json:"created"`
}

type RequestWithItems struct {
	ItemRequest
	Items []Item `json:"items"`
}
