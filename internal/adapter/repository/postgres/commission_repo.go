package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// CommissionRepository implements usecase.CommissionRepository. Tiers live in
// waiting_day_tiers keyed by the owning commission record.
type CommissionRepository struct {
	db querier
}

// NewCommissionRepository creates a new CommissionRepository.
func NewCommissionRepository(pool *pgxpool.Pool) *CommissionRepository {
	return newCommissionRepository(pool)
}

func newCommissionRepository(db querier) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create inserts a commission record and its tier table within a transaction.
func (r *CommissionRepository) Create(ctx context.Context, tx usecase.Transaction, commission *domain.ServiceCommission) error {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO service_commissions (id, service_id, commission, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		commission.ID,
		commission.ServiceID,
		decimalToNumeric(commission.Commission),
		commission.IsActive,
		timeToPgTimestamptz(commission.CreatedAt),
	)
	if err != nil {
		return err
	}

	for _, tier := range commission.Tiers {
		_, err := q.Exec(ctx, `
			INSERT INTO waiting_day_tiers (commission_id, waiting_days, additional_percentage)
			VALUES ($1, $2, $3)
		`,
			commission.ID,
			int32(tier.WaitingDays),
			decimalToNumeric(tier.AdditionalPercentage),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListByService returns the service's commission records newest first, each
// with its tiers ordered by day count.
func (r *CommissionRepository) ListByService(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, service_id, commission, is_active, created_at
		FROM service_commissions
		WHERE service_id = $1 AND (NOT $2 OR is_active)
		ORDER BY created_at DESC, id DESC
	`, serviceID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		commissions []*domain.ServiceCommission
		ids         []string
	)
	byID := make(map[string]*domain.ServiceCommission)
	for rows.Next() {
		var (
			c   domain.ServiceCommission
			pct pgtype.Numeric
		)
		if err := rows.Scan(&c.ID, &c.ServiceID, &pct, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Commission = numericToDecimal(pct)
		commissions = append(commissions, &c)
		ids = append(ids, c.ID)
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return commissions, nil
	}

	tierRows, err := r.db.Query(ctx, `
		SELECT commission_id, waiting_days, additional_percentage
		FROM waiting_day_tiers
		WHERE commission_id = ANY($1)
		ORDER BY commission_id, waiting_days
	`, ids)
	if err != nil {
		return nil, err
	}
	defer tierRows.Close()

	for tierRows.Next() {
		var (
			commissionID string
			days         int32
			pct          pgtype.Numeric
		)
		if err := tierRows.Scan(&commissionID, &days, &pct); err != nil {
			return nil, err
		}
		if c, ok := byID[commissionID]; ok {
			c.Tiers = append(c.Tiers, domain.WaitingDayTier{
				WaitingDays:          int(days),
				AdditionalPercentage: numericToDecimal(pct),
			})
		}
	}

	return commissions, tierRows.Err()
}
