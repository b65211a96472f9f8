// Package storage
package storage

import (
	"context"
	"time"
)

// Exchange is the persisted record of one completed request/response
// exchange through the gateway. It captures shape and outcome, not message
// bodies: conversation content belongs to the caller.
type Exchange struct {
	// ID is the gateway-assigned exchange id.
	ID string

	// Model is the model name the caller requested.
	Model string

	// Status is the HTTP status returned to the caller.
	Status int

	// FinishReason is the finish reason of the completion, when one was
	// produced ("stop", "tool_calls").
	FinishReason string

	// PromptChars and CompletionChars are character counts of the inbound
	// conversation and the produced content.
	PromptChars     int
	CompletionChars int

	// Streaming records whether the caller requested a streamed response.
	Streaming bool

	// Truncated is set when the response stream ended mid-frame.
	Truncated bool

	// DurationMs is the wall time of the exchange.
	DurationMs int64

	// CreatedAt is when the exchange completed.
	CreatedAt time.Time
}

// Driver defines the interface for persisting and retrieving exchange
// records in a storage backend.
type Driver interface {
	// Save stores an exchange record.
	Save(ctx context.Context, ex *Exchange) error

	// Get retrieves an exchange by id.
	Get(ctx context.Context, id string) (*Exchange, error)

	// List returns all exchanges, most recent first.
	List(ctx context.Context) ([]*Exchange, error)

	// Close closes the store and releases any resources.
	Close() error
}
