package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
)

// ServiceRepository defines data access for tradeable services.
type ServiceRepository interface {
	Create(ctx context.Context, service *domain.Service) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Service, error)
}

// CommissionRepository defines data access for service commission records.
type CommissionRepository interface {
	Create(ctx context.Context, tx Transaction, commission *domain.ServiceCommission) error
	// ListByService returns the service's records, newest first.
	ListByService(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error)
}

// TransactionRepository defines data access for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	UpdateGroup(ctx context.Context, tx Transaction, id string, groupID *string, updatedAt time.Time) error
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error)
}

// GroupRepository defines data access for transaction groups.
type GroupRepository interface {
	Create(ctx context.Context, tx Transaction, group *domain.TransactionGroup) error
	GetByID(ctx context.Context, id string) (*domain.TransactionGroup, error)
	ListByClient(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation that failed on a transient database conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ScheduleCache memoizes resolved waiting-days surcharges per service.
// Every invalidation starts a new generation; SetSurcharge discards values
// computed under an older one.
type ScheduleCache interface {
	// GetSurcharge reports found=false on a cache miss.
	GetSurcharge(ctx context.Context, serviceID string, elapsedDays int) (pct decimal.Decimal, found bool, err error)
	Generation(ctx context.Context, serviceID string) (int64, error)
	SetSurcharge(ctx context.Context, serviceID string, generation int64, elapsedDays int, pct decimal.Decimal, ttl time.Duration) (stored bool, err error)
	InvalidateService(ctx context.Context, serviceID string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
