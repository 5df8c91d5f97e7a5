package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
)

// ServiceUseCase manages services and their commission records.
type ServiceUseCase struct {
	txManager      TransactionManager
	serviceRepo    ServiceRepository
	commissionRepo CommissionRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	resolver       *RateScheduleResolver
}

// NewServiceUseCase creates a new ServiceUseCase.
func NewServiceUseCase(
	txManager TransactionManager,
	serviceRepo ServiceRepository,
	commissionRepo CommissionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	resolver *RateScheduleResolver,
) *ServiceUseCase {
	return &ServiceUseCase{
		txManager:      txManager,
		serviceRepo:    serviceRepo,
		commissionRepo: commissionRepo,
		outboxRepo:     outboxRepo,
		idGen:          idGen,
		resolver:       resolver,
	}
}

// CreateServiceInput represents input for creating a service.
type CreateServiceInput struct {
	Name         string
	FromCurrency string
	ToCurrency   string
	Kind         domain.ServiceKind
}

// CreateService creates a new service.
func (uc *ServiceUseCase) CreateService(ctx context.Context, input CreateServiceInput) (*domain.Service, error) {
	service := &domain.Service{
		ID:           uc.idGen.Generate(),
		Name:         strings.TrimSpace(input.Name),
		FromCurrency: strings.ToUpper(strings.TrimSpace(input.FromCurrency)),
		ToCurrency:   strings.ToUpper(strings.TrimSpace(input.ToCurrency)),
		Kind:         input.Kind,
		CreatedAt:    time.Now().UTC(),
	}

	if err := service.Validate(); err != nil {
		return nil, err
	}

	if err := uc.serviceRepo.Create(ctx, service); err != nil {
		return nil, err
	}

	return service, nil
}

// GetService retrieves a service by ID.
func (uc *ServiceUseCase) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return uc.serviceRepo.GetByID(ctx, id)
}

// ListServices lists services with pagination.
func (uc *ServiceUseCase) ListServices(ctx context.Context, limit, offset int) ([]*domain.Service, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.serviceRepo.List(ctx, limit, offset)
}

// CreateCommissionInput represents input for creating a commission record.
type CreateCommissionInput struct {
	ServiceID  string
	Commission decimal.Decimal
	Tiers      []domain.WaitingDayTier
	IsActive   bool
}

// CreateCommission records a new commission for a service. The newest active
// record becomes authoritative for base and waiting-days resolution.
func (uc *ServiceUseCase) CreateCommission(ctx context.Context, input CreateCommissionInput) (*domain.ServiceCommission, error) {
	if _, err := uc.serviceRepo.GetByID(ctx, input.ServiceID); err != nil {
		return nil, err
	}

	if err := domain.ValidateDelta(input.Commission); err != nil {
		return nil, err
	}

	commission := &domain.ServiceCommission{
		ID:         uc.idGen.Generate(),
		ServiceID:  input.ServiceID,
		Commission: input.Commission,
		Tiers:      input.Tiers,
		IsActive:   input.IsActive,
		CreatedAt:  time.Now().UTC(),
	}

	if err := commission.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.commissionRepo.Create(txCtx, tx, commission); err != nil {
		return nil, err
	}

	tiers := make([]map[string]any, 0, len(commission.Tiers))
	for _, tier := range commission.Tiers {
		tiers = append(tiers, map[string]any{
			"waiting_days":          tier.WaitingDays,
			"additional_percentage": tier.AdditionalPercentage.String(),
		})
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   commission.ServiceID,
		AggregateType: domain.AggregateTypeService,
		EventType:     domain.EventTypeCommissionCreated,
		Payload: map[string]any{
			"commission_id": commission.ID,
			"service_id":    commission.ServiceID,
			"commission":    commission.Commission.String(),
			"is_active":     commission.IsActive,
			"tiers":         tiers,
		},
		CreatedAt: commission.CreatedAt,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.resolver != nil {
		uc.resolver.Invalidate(ctx, commission.ServiceID)
	}

	return commission, nil
}

// ListCommissions lists a service's commission records, newest first.
func (uc *ServiceUseCase) ListCommissions(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error) {
	if _, err := uc.serviceRepo.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}
	return uc.commissionRepo.ListByService(ctx, serviceID, activeOnly)
}

// BaseCommission returns the commission of the service's authoritative record,
// or 0 when the service has no active record.
func (uc *ServiceUseCase) BaseCommission(ctx context.Context, serviceID string) (decimal.Decimal, error) {
	if _, err := uc.serviceRepo.GetByID(ctx, serviceID); err != nil {
		return decimal.Zero, err
	}

	records, err := uc.commissionRepo.ListByService(ctx, serviceID, true)
	if err != nil {
		return decimal.Zero, err
	}

	authoritative := domain.AuthoritativeCommission(records)
	if authoritative == nil {
		return decimal.Zero, nil
	}

	return authoritative.Commission, nil
}

// CommissionByDay resolves the waiting-days surcharge of a service for the
// interval [minDate, maxDate].
func (uc *ServiceUseCase) CommissionByDay(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error) {
	if _, err := uc.serviceRepo.GetByID(ctx, serviceID); err != nil {
		return decimal.Zero, err
	}
	return uc.resolver.Resolve(ctx, serviceID, minDate, maxDate), nil
}
