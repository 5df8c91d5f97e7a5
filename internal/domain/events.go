package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated      = "transaction.created"
	EventTypeTransactionUpdated      = "transaction.updated"
	EventTypeTransactionFinalized    = "transaction.finalized"
	EventTypeTransactionGroupChanged = "transaction.group_changed"
	EventTypeGroupCreated            = "group.created"
	EventTypeCommissionCreated       = "commission.created"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeGroup       = "group"
	AggregateTypeService     = "service"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
