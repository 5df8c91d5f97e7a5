package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/infrastructure/metrics"
)

// TransactionUseCase handles transaction business logic.
type TransactionUseCase struct {
	txManager  TransactionManager
	txRepo     TransactionRepository
	groupRepo  GroupRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	quotes     *QuoteUseCase
	metrics    *metrics.Metrics
	retrier    Retrier
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	txRepo TransactionRepository,
	groupRepo GroupRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	quotes *QuoteUseCase,
	metrics *metrics.Metrics,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:  txManager,
		txRepo:     txRepo,
		groupRepo:  groupRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		quotes:     quotes,
		metrics:    metrics,
	}
}

// WithRetrier re-runs updates and finalizations that lose a row-lock race.
func (uc *TransactionUseCase) WithRetrier(r Retrier) *TransactionUseCase {
	uc.retrier = r
	return uc
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	ClientID        string
	ServiceID       string
	FaceAmount      decimal.Decimal
	DeltaPercentage decimal.Decimal
	DiscountMode    bool
	RegisteredAt    time.Time
	DeliveryAt      *time.Time
	GroupID         *string
	// Source and Destination are raw descriptors in any accepted shape.
	Source      any
	Destination any
}

// UpdateTransactionInput replaces the mutable fields of a pending transaction.
type UpdateTransactionInput struct {
	ID              string
	ServiceID       string
	FaceAmount      decimal.Decimal
	DeltaPercentage decimal.Decimal
	DiscountMode    bool
	RegisteredAt    time.Time
	DeliveryAt      *time.Time
	Source          any
	Destination     any
}

// TransactionResult is a saved transaction together with the quote its
// amounts were taken from.
type TransactionResult struct {
	Transaction *domain.Transaction
	Quote       domain.Quote
	Warnings    []string
}

// CreateTransaction resolves the commission terms, settles the face amount and
// stores the transaction with its normalized descriptors.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*TransactionResult, error) {
	now := time.Now().UTC()

	transaction := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		ClientID:        input.ClientID,
		ServiceID:       input.ServiceID,
		FaceAmount:      input.FaceAmount,
		DeltaPercentage: input.DeltaPercentage,
		DiscountMode:    input.DiscountMode,
		RegisteredAt:    input.RegisteredAt,
		DeliveryAt:      input.DeliveryAt,
		Source:          domain.NormalizeSource(input.Source),
		Destination:     domain.NormalizeDestination(input.Destination),
		Status:          domain.TransactionPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	if input.GroupID != nil {
		group, err := uc.groupRepo.GetByID(ctx, *input.GroupID)
		if err != nil {
			return nil, err
		}
		if group.ClientID != transaction.ClientID {
			return nil, domain.ErrGroupClientClash
		}
		transaction.GroupID = input.GroupID
	}

	result, err := uc.settle(ctx, transaction)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.txRepo.Create(txCtx, tx, transaction); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, transaction, domain.EventTypeTransactionCreated, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCreated.Inc()
		uc.metrics.FaceAmount.Observe(transaction.FaceAmount.InexactFloat64())
		if len(result.Warnings) > 0 {
			uc.metrics.OverAllocations.Inc()
		}
	}

	return result, nil
}

// UpdateTransaction recomputes and stores a pending transaction.
func (uc *TransactionUseCase) UpdateTransaction(ctx context.Context, input UpdateTransactionInput) (*TransactionResult, error) {
	var result *TransactionResult
	err := uc.retry(ctx, func() error {
		var err error
		result, err = uc.updateTransaction(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsUpdated.Inc()
		if len(result.Warnings) > 0 {
			uc.metrics.OverAllocations.Inc()
		}
	}

	return result, nil
}

func (uc *TransactionUseCase) updateTransaction(ctx context.Context, input UpdateTransactionInput) (*TransactionResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transaction, err := uc.txRepo.GetByIDForUpdate(txCtx, tx, input.ID)
	if err != nil {
		return nil, err
	}

	if !transaction.IsEditable() {
		return nil, domain.ErrTransactionFinalized
	}

	transaction.ServiceID = input.ServiceID
	transaction.FaceAmount = input.FaceAmount
	transaction.DeltaPercentage = input.DeltaPercentage
	transaction.DiscountMode = input.DiscountMode
	transaction.RegisteredAt = input.RegisteredAt
	transaction.DeliveryAt = input.DeliveryAt
	transaction.Source = domain.NormalizeSource(input.Source)
	transaction.Destination = domain.NormalizeDestination(input.Destination)
	transaction.UpdatedAt = time.Now().UTC()

	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	result, err := uc.settle(txCtx, transaction)
	if err != nil {
		return nil, err
	}

	if err := uc.txRepo.Update(txCtx, tx, transaction); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, transaction, domain.EventTypeTransactionUpdated, transaction.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return result, nil
}

// FinalizeTransaction freezes a transaction against further edits.
func (uc *TransactionUseCase) FinalizeTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var transaction *domain.Transaction
	err := uc.retry(ctx, func() error {
		var err error
		transaction, err = uc.finalizeTransaction(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsFinalized.Inc()
	}

	return transaction, nil
}

func (uc *TransactionUseCase) finalizeTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transaction, err := uc.txRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	if !transaction.IsEditable() {
		return nil, domain.ErrTransactionFinalized
	}

	transaction.Status = domain.TransactionFinalized
	transaction.UpdatedAt = time.Now().UTC()

	if err := uc.txRepo.Update(txCtx, tx, transaction); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, transaction, domain.EventTypeTransactionFinalized, transaction.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return transaction, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ListTransactionsByClient lists a client's transactions, newest first.
func (uc *TransactionUseCase) ListTransactionsByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.txRepo.ListByClient(ctx, clientID, limit, offset)
}

// settle resolves the transaction's terms and stores the rounded settlement.
func (uc *TransactionUseCase) settle(ctx context.Context, transaction *domain.Transaction) (*TransactionResult, error) {
	terms, err := uc.quotes.ResolveTerms(ctx, transaction.ServiceID, transaction.DeltaPercentage,
		&transaction.RegisteredAt, transaction.DeliveryAt)
	if err != nil {
		return nil, err
	}

	face := transaction.FaceAmount
	out := uc.quotes.build(domain.QuoteInput{
		FaceAmount:   &face,
		Terms:        terms,
		DiscountMode: transaction.DiscountMode,
		Destination:  transaction.Destination,
	})

	switch out.Quote.Status {
	case domain.QuoteReady:
	case domain.QuoteInvalidPercentage:
		return nil, fmt.Errorf("%w: effective percentage %s in discount mode",
			domain.ErrInvalidPercentage, out.Quote.EffectivePercentage)
	default:
		return nil, domain.ErrAmountUnavailable
	}

	transaction.ApplyQuote(out.Quote)

	return &TransactionResult{
		Transaction: transaction,
		Quote:       out.Quote,
		Warnings:    out.Warnings,
	}, nil
}

func (uc *TransactionUseCase) retry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

func (uc *TransactionUseCase) emit(ctx context.Context, tx Transaction, transaction *domain.Transaction, eventType string, at time.Time) error {
	payload := map[string]any{
		"transaction_id":    transaction.ID,
		"client_id":         transaction.ClientID,
		"service_id":        transaction.ServiceID,
		"status":            string(transaction.Status),
		"face_amount":       transaction.FaceAmount.String(),
		"commission_amount": transaction.CommissionAmount.String(),
		"net_amount":        transaction.NetAmount.String(),
		"discount_mode":     transaction.DiscountMode,
	}
	if transaction.GroupID != nil {
		payload["group_id"] = *transaction.GroupID
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transaction.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
		Published:     false,
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}
