package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/infrastructure/metrics"
)

// QuoteUseCase computes settlement previews. Saves go through the same
// computation, so a preview always matches what would be stored.
type QuoteUseCase struct {
	services *ServiceUseCase
	resolver *RateScheduleResolver
	metrics  *metrics.Metrics
}

// NewQuoteUseCase creates a new QuoteUseCase.
func NewQuoteUseCase(services *ServiceUseCase, resolver *RateScheduleResolver, metrics *metrics.Metrics) *QuoteUseCase {
	return &QuoteUseCase{
		services: services,
		resolver: resolver,
		metrics:  metrics,
	}
}

// QuoteInput represents input for a settlement quote.
type QuoteInput struct {
	ServiceID       string
	FaceAmount      *decimal.Decimal
	DeltaPercentage decimal.Decimal
	DiscountMode    bool
	RegisteredAt    *time.Time
	DeliveryAt      *time.Time
	// Destination is a raw destination descriptor in any accepted shape.
	Destination any
}

// QuoteOutput is a computed quote with the normalized destination it was
// balanced against.
type QuoteOutput struct {
	Quote       domain.Quote
	Destination *domain.Destination
	Warnings    []string
}

// Quote resolves the commission terms and computes the settlement. Amounts
// and percentages a save would reject are reported through the quote status,
// never as an error.
func (uc *QuoteUseCase) Quote(ctx context.Context, input QuoteInput) (*QuoteOutput, error) {
	start := time.Now()

	terms, err := uc.ResolveTerms(ctx, input.ServiceID, input.DeltaPercentage, input.RegisteredAt, input.DeliveryAt)
	if err != nil {
		return nil, err
	}

	destination := domain.NormalizeDestination(input.Destination)
	out := uc.build(domain.QuoteInput{
		FaceAmount:   input.FaceAmount,
		Terms:        terms,
		DiscountMode: input.DiscountMode,
		Destination:  destination,
	})
	out.Destination = destination

	if uc.metrics != nil {
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	return out, nil
}

// ResolveTerms assembles base, delta and waiting-days terms. A missing
// service leaves base and waiting days unresolved at 0.
func (uc *QuoteUseCase) ResolveTerms(
	ctx context.Context,
	serviceID string,
	delta decimal.Decimal,
	registeredAt, deliveryAt *time.Time,
) (domain.CommissionTerms, error) {
	terms := domain.CommissionTerms{Delta: delta}
	if serviceID == "" {
		return terms, nil
	}

	base, err := uc.services.BaseCommission(ctx, serviceID)
	if err != nil {
		return domain.CommissionTerms{}, err
	}
	terms.Base = base
	terms.WaitingDays = uc.resolver.Resolve(ctx, serviceID, registeredAt, deliveryAt)

	return terms, nil
}

func (uc *QuoteUseCase) build(in domain.QuoteInput) *QuoteOutput {
	q := domain.BuildQuote(in)

	out := &QuoteOutput{Quote: q}
	if q.Balance != nil && q.Balance.OverAllocated {
		out.Warnings = append(out.Warnings, OverAllocationWarning)
	}

	if uc.metrics != nil {
		uc.metrics.QuotesComputed.WithLabelValues(string(q.Status)).Inc()
	}

	return out
}
