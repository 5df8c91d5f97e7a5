package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

func TestQuoteUseCase_Quote(t *testing.T) {
	face := decimal.NewFromInt(1000)

	tests := []struct {
		name           string
		input          usecase.QuoteInput
		wantStatus     domain.QuoteStatus
		wantEffective  string
		wantCommission string
		wantNet        string
		wantWarnings   int
	}{
		{
			name: "commission on top with three waiting days",
			input: usecase.QuoteInput{
				ServiceID:    "svc-1",
				FaceAmount:   &face,
				RegisteredAt: date(2024, 5, 1),
				DeliveryAt:   date(2024, 5, 4),
			},
			wantStatus:     domain.QuoteReady,
			wantEffective:  "7",
			wantCommission: "70",
			wantNet:        "930",
		},
		{
			name: "commission included with three waiting days",
			input: usecase.QuoteInput{
				ServiceID:    "svc-1",
				FaceAmount:   &face,
				DiscountMode: true,
				RegisteredAt: date(2024, 5, 1),
				DeliveryAt:   date(2024, 5, 4),
			},
			wantStatus:     domain.QuoteReady,
			wantEffective:  "7",
			wantCommission: "65.42",
			wantNet:        "934.58",
		},
		{
			name: "manual delta without delivery date",
			input: usecase.QuoteInput{
				ServiceID:       "svc-1",
				FaceAmount:      &face,
				DeltaPercentage: decimal.NewFromFloat(-1.5),
				RegisteredAt:    date(2024, 5, 1),
			},
			wantStatus:     domain.QuoteReady,
			wantEffective:  "3.5",
			wantCommission: "35",
			wantNet:        "965",
		},
		{
			name: "over-allocated destination warns",
			input: usecase.QuoteInput{
				ServiceID:    "svc-1",
				FaceAmount:   &face,
				RegisteredAt: date(2024, 5, 1),
				DeliveryAt:   date(2024, 5, 4),
				Destination:  `{"type":"bank","items":[{"bankName":"BCP","amount":600},{"bankName":"BBVA","amount":500}]}`,
			},
			wantStatus:     domain.QuoteReady,
			wantEffective:  "7",
			wantCommission: "70",
			wantNet:        "930",
			wantWarnings:   1,
		},
		{
			name: "no face amount yet",
			input: usecase.QuoteInput{
				ServiceID: "svc-1",
			},
			wantStatus:    domain.QuoteUnavailable,
			wantEffective: "5",
		},
		{
			name: "negative face amount",
			input: usecase.QuoteInput{
				ServiceID:  "svc-1",
				FaceAmount: decimalPtr(decimal.NewFromInt(-5)),
			},
			wantStatus:    domain.QuoteUnavailable,
			wantEffective: "5",
		},
		{
			name: "manual delta out of range",
			input: usecase.QuoteInput{
				ServiceID:       "svc-1",
				FaceAmount:      &face,
				DeltaPercentage: decimal.NewFromInt(1500),
			},
			wantStatus:    domain.QuoteInvalidPercentage,
			wantEffective: "1505",
		},
		{
			name: "no service selected",
			input: usecase.QuoteInput{
				FaceAmount:      &face,
				DeltaPercentage: decimal.NewFromInt(2),
			},
			wantStatus:     domain.QuoteReady,
			wantEffective:  "2",
			wantCommission: "20",
			wantNet:        "980",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			out, err := f.quoteUC.Quote(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			q := out.Quote
			if q.Status != tt.wantStatus {
				t.Fatalf("expected status %s, got %s", tt.wantStatus, q.Status)
			}
			if !q.EffectivePercentage.Equal(decimal.RequireFromString(tt.wantEffective)) {
				t.Errorf("expected effective %s, got %s", tt.wantEffective, q.EffectivePercentage)
			}
			if tt.wantCommission != "" {
				if got := domain.RoundMoney(q.Settlement.CommissionAmount); !got.Equal(decimal.RequireFromString(tt.wantCommission)) {
					t.Errorf("expected commission %s, got %s", tt.wantCommission, got)
				}
				if got := domain.RoundMoney(q.Settlement.NetAmount); !got.Equal(decimal.RequireFromString(tt.wantNet)) {
					t.Errorf("expected net %s, got %s", tt.wantNet, got)
				}
			}
			if len(out.Warnings) != tt.wantWarnings {
				t.Errorf("expected %d warnings, got %v", tt.wantWarnings, out.Warnings)
			}
		})
	}
}

func TestQuoteUseCase_InvalidPercentage(t *testing.T) {
	f := newFixture()
	face := decimal.NewFromInt(1000)

	out, err := f.quoteUC.Quote(context.Background(), usecase.QuoteInput{
		ServiceID:       "svc-1",
		FaceAmount:      &face,
		DeltaPercentage: decimal.NewFromInt(-105),
		DiscountMode:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Quote.Status != domain.QuoteInvalidPercentage {
		t.Errorf("expected invalid_percentage, got %s", out.Quote.Status)
	}
}

func TestQuoteUseCase_UnknownService(t *testing.T) {
	f := newFixture()
	face := decimal.NewFromInt(1000)

	_, err := f.quoteUC.Quote(context.Background(), usecase.QuoteInput{ServiceID: "missing", FaceAmount: &face})
	if !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
