package models

const (
	// DefaultPageSize is used when a list request omits the size parameter.
	DefaultPageSize = 10

	// WorkerQueueSize bounds the in-memory export worker queue.
	WorkerQueueSize = 256

	// RateLimitRequests allowed per user within RateLimitWindowSeconds.
	RateLimitRequests      = 30
	RateLimitWindowSeconds = 60
)
