package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

const transactionColumns = `id, client_id, service_id, face_amount, delta_percentage, discount_mode,
	registered_at, delivery_at, base_percentage, waiting_days_percentage,
	commission_amount, net_amount, source, destination, group_id, status,
	created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository.
// Descriptors are stored as canonical jsonb, amounts as numeric rounded to cents.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction within a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	source, destination, err := encodeDescriptors(t)
	if err != nil {
		return err
	}

	_, err = txQuerier(tx).Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		t.ID,
		t.ClientID,
		t.ServiceID,
		decimalToNumeric(t.FaceAmount),
		decimalToNumeric(t.DeltaPercentage),
		t.DiscountMode,
		timeToPgTimestamptz(t.RegisteredAt),
		optionalTimestamptz(t.DeliveryAt),
		decimalToNumeric(t.BasePercentage),
		decimalToNumeric(t.WaitingDaysPercentage),
		decimalToNumeric(domain.RoundMoney(t.CommissionAmount)),
		decimalToNumeric(domain.RoundMoney(t.NetAmount)),
		source,
		destination,
		optionalText(t.GroupID),
		string(t.Status),
		timeToPgTimestamptz(t.CreatedAt),
		timeToPgTimestamptz(t.UpdatedAt),
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return getTransaction(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a transaction and locks its row until the
// transaction ends.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return getTransaction(txQuerier(tx).QueryRow(ctx, query, id))
}

// Update rewrites the mutable fields of a transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	source, destination, err := encodeDescriptors(t)
	if err != nil {
		return err
	}

	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE transactions SET
			service_id = $2,
			face_amount = $3,
			delta_percentage = $4,
			discount_mode = $5,
			registered_at = $6,
			delivery_at = $7,
			base_percentage = $8,
			waiting_days_percentage = $9,
			commission_amount = $10,
			net_amount = $11,
			source = $12,
			destination = $13,
			status = $14,
			updated_at = $15
		WHERE id = $1
	`,
		t.ID,
		t.ServiceID,
		decimalToNumeric(t.FaceAmount),
		decimalToNumeric(t.DeltaPercentage),
		t.DiscountMode,
		timeToPgTimestamptz(t.RegisteredAt),
		optionalTimestamptz(t.DeliveryAt),
		decimalToNumeric(t.BasePercentage),
		decimalToNumeric(t.WaitingDaysPercentage),
		decimalToNumeric(domain.RoundMoney(t.CommissionAmount)),
		decimalToNumeric(domain.RoundMoney(t.NetAmount)),
		source,
		destination,
		string(t.Status),
		timeToPgTimestamptz(t.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// UpdateGroup sets or clears the group membership of a transaction.
func (r *TransactionRepository) UpdateGroup(ctx context.Context, tx usecase.Transaction, id string, groupID *string, updatedAt time.Time) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`UPDATE transactions SET group_id = $2, updated_at = $3 WHERE id = $1`,
		id,
		optionalText(groupID),
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListByClient returns a client's transactions, newest registration first.
func (r *TransactionRepository) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE client_id = $1
		ORDER BY registered_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

func getTransaction(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	return t, err
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t                          domain.Transaction
		face, delta, base, waiting pgtype.Numeric
		commission, net            pgtype.Numeric
		registeredAt, deliveryAt   pgtype.Timestamptz
		createdAt, updatedAt       pgtype.Timestamptz
		source, destination        []byte
		groupID                    pgtype.Text
		status                     string
	)

	err := row.Scan(
		&t.ID,
		&t.ClientID,
		&t.ServiceID,
		&face,
		&delta,
		&t.DiscountMode,
		&registeredAt,
		&deliveryAt,
		&base,
		&waiting,
		&commission,
		&net,
		&source,
		&destination,
		&groupID,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.FaceAmount = numericToDecimal(face)
	t.DeltaPercentage = numericToDecimal(delta)
	t.BasePercentage = numericToDecimal(base)
	t.WaitingDaysPercentage = numericToDecimal(waiting)
	t.CommissionAmount = numericToDecimal(commission)
	t.NetAmount = numericToDecimal(net)
	t.RegisteredAt = registeredAt.Time.UTC()
	t.DeliveryAt = timestamptzPtr(deliveryAt)
	t.CreatedAt = createdAt.Time.UTC()
	t.UpdatedAt = updatedAt.Time.UTC()
	t.GroupID = textPtr(groupID)
	t.Status = domain.TransactionStatus(status)

	if t.Source, err = unmarshalJSONB[domain.PaySource](source); err != nil {
		return nil, fmt.Errorf("decode source of %s: %w", t.ID, err)
	}
	if t.Destination, err = unmarshalJSONB[domain.Destination](destination); err != nil {
		return nil, fmt.Errorf("decode destination of %s: %w", t.ID, err)
	}

	return &t, nil
}

func encodeDescriptors(t *domain.Transaction) (source, destination []byte, err error) {
	if source, err = marshalJSONB(t.Source); err != nil {
		return nil, nil, fmt.Errorf("encode source: %w", err)
	}
	if destination, err = marshalJSONB(t.Destination); err != nil {
		return nil, nil, fmt.Errorf("encode destination: %w", err)
	}
	return source, destination, nil
}
