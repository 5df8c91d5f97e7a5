package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/remitdesk/internal/domain"
)

const serviceColumns = `id, name, from_currency, to_currency, kind, created_at`

// ServiceRepository implements usecase.ServiceRepository.
type ServiceRepository struct {
	db querier
}

// NewServiceRepository creates a new ServiceRepository.
func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return newServiceRepository(pool)
}

func newServiceRepository(db querier) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// Create inserts a new service.
func (r *ServiceRepository) Create(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO services (id, name, from_currency, to_currency, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		service.ID,
		service.Name,
		service.FromCurrency,
		service.ToCurrency,
		string(service.Kind),
		timeToPgTimestamptz(service.CreatedAt),
	)

	return err
}

// GetByID retrieves a service by ID.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	service, err := scanService(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrServiceNotFound
	}

	return service, err
}

// List returns services ordered by name.
func (r *ServiceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY name, id LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*domain.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}

	return services, rows.Err()
}

func scanService(row rowScanner) (*domain.Service, error) {
	var (
		service domain.Service
		kind    string
	)

	err := row.Scan(
		&service.ID,
		&service.Name,
		&service.FromCurrency,
		&service.ToCurrency,
		&kind,
		&service.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	service.Kind = domain.ServiceKind(kind)
	return &service, nil
}
