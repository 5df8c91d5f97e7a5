package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceKind distinguishes how a service moves money.
type ServiceKind string

const (
	ServiceKindExchange   ServiceKind = "exchange"
	ServiceKindRemittance ServiceKind = "remittance"
)

// Service is a tradeable currency/type pair.
type Service struct {
	ID           string
	Name         string
	FromCurrency string
	ToCurrency   string
	Kind         ServiceKind
	CreatedAt    time.Time
}

// Validate checks the service fields.
func (s *Service) Validate() error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if err := ValidateCurrency(s.FromCurrency); err != nil {
		return err
	}
	if err := ValidateCurrency(s.ToCurrency); err != nil {
		return err
	}
	switch s.Kind {
	case ServiceKindExchange, ServiceKindRemittance:
		return nil
	default:
		return fmt.Errorf("%w: unknown service kind %q", ErrInvalidName, s.Kind)
	}
}

// WaitingDayTier maps an elapsed-day count to an extra percentage.
type WaitingDayTier struct {
	WaitingDays          int
	AdditionalPercentage decimal.Decimal
}

// ServiceCommission is a contractual commission record of a service.
type ServiceCommission struct {
	ID         string
	ServiceID  string
	Commission decimal.Decimal
	Tiers      []WaitingDayTier
	IsActive   bool
	CreatedAt  time.Time
}

// Validate checks the tier table: day counts must be non-negative and unique.
func (c *ServiceCommission) Validate() error {
	seen := make(map[int]bool, len(c.Tiers))
	for _, tier := range c.Tiers {
		if tier.WaitingDays < 0 {
			return fmt.Errorf("%w: waiting days %d is negative", ErrInvalidTier, tier.WaitingDays)
		}
		if seen[tier.WaitingDays] {
			return fmt.Errorf("%w: duplicate waiting days %d", ErrInvalidTier, tier.WaitingDays)
		}
		seen[tier.WaitingDays] = true
	}
	return nil
}

// SurchargeFor returns the percentage of the tier matching elapsedDays exactly,
// or 0 when no tier matches or elapsedDays is negative.
func (c *ServiceCommission) SurchargeFor(elapsedDays int) decimal.Decimal {
	if c == nil || elapsedDays < 0 {
		return decimal.Zero
	}
	for _, tier := range c.Tiers {
		if tier.WaitingDays == elapsedDays {
			return tier.AdditionalPercentage
		}
	}
	return decimal.Zero
}

// AuthoritativeCommission picks the most recently created active record.
func AuthoritativeCommission(records []*ServiceCommission) *ServiceCommission {
	active := make([]*ServiceCommission, 0, len(records))
	for _, r := range records {
		if r != nil && r.IsActive {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})

	return active[0]
}

// CalendarDate truncates t to midnight of its UTC calendar day.
func CalendarDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ElapsedDays counts whole UTC calendar days from start to end. The result is
// negative when end falls on an earlier day than start.
func ElapsedDays(start, end time.Time) int {
	return int(CalendarDate(end).Sub(CalendarDate(start)).Hours() / 24)
}

// ResolveWaitingDays applies the tier table of commission to the interval
// [start, end]. Missing dates, missing schedules and negative intervals
// resolve to 0.
func ResolveWaitingDays(commission *ServiceCommission, start, end *time.Time) decimal.Decimal {
	if commission == nil || start == nil || end == nil {
		return decimal.Zero
	}
	return commission.SurchargeFor(ElapsedDays(*start, *end))
}
