package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

const groupColumns = `id, client_id, name, color, note, created_at`

// GroupRepository implements usecase.GroupRepository.
type GroupRepository struct {
	db querier
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return newGroupRepository(pool)
}

func newGroupRepository(db querier) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group within a transaction.
func (r *GroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.TransactionGroup) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO transaction_groups (id, client_id, name, color, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		group.ID,
		group.ClientID,
		group.Name,
		group.Color,
		group.Note,
		timeToPgTimestamptz(group.CreatedAt),
	)

	return err
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.TransactionGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM transaction_groups WHERE id = $1`

	group, err := scanGroup(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGroupNotFound
	}

	return group, err
}

// ListByClient returns a client's groups ordered by name.
func (r *GroupRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM transaction_groups WHERE client_id = $1 ORDER BY name, id`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*domain.TransactionGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

func scanGroup(row rowScanner) (*domain.TransactionGroup, error) {
	var group domain.TransactionGroup
	err := row.Scan(
		&group.ID,
		&group.ClientID,
		&group.Name,
		&group.Color,
		&group.Note,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &group, nil
}
