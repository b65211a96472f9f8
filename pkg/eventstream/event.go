package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after a gateway exchange finishes.
	EventTypeExchangeCompleted = "wireline.exchange.completed"
)

// ExchangeCompletedEvent is a transport-neutral event payload for a finished
// exchange.
type ExchangeCompletedEvent struct {
	SchemaVersion int                 `json:"schema_version"`
	EventType     string              `json:"event_type"`
	EventID       string              `json:"event_id"`
	EmittedAt     time.Time           `json:"emitted_at"`
	Source        EventSource         `json:"source"`
	RequestMeta   ExchangeRequestMeta `json:"request_meta"`
	Exchange      ExchangeMeta        `json:"exchange"`
}

// EventSource identifies the gateway instance that handled the exchange.
type EventSource struct {
	Gateway  string `json:"gateway,omitempty"`
	Upstream string `json:"upstream"`
}

// ExchangeRequestMeta captures request lifecycle metadata for the event.
type ExchangeRequestMeta struct {
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	HTTPStatus  int       `json:"http_status"`
}

// ExchangeMeta captures what flowed through the exchange without carrying the
// conversation content itself.
type ExchangeMeta struct {
	ExchangeID      string `json:"exchange_id"`
	Model           string `json:"model"`
	FinishReason    string `json:"finish_reason,omitempty"`
	PromptChars     int    `json:"prompt_chars"`
	CompletionChars int    `json:"completion_chars"`
	Truncated       bool   `json:"truncated,omitempty"`
}
