package domain

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CommissionTerms are the three additive percentage contributions of a
// transaction. Unresolved terms stay at the zero value and contribute 0.
type CommissionTerms struct {
	// Base is the service's contractual commission percentage.
	Base decimal.Decimal
	// Delta is the per-transaction manual adjustment, possibly negative.
	Delta decimal.Decimal
	// WaitingDays is the surcharge resolved from the service's day tiers.
	WaitingDays decimal.Decimal
}

// Effective returns the effective commission percentage.
func (t CommissionTerms) Effective() decimal.Decimal {
	return ComposeTerms(t)
}

// ComposeTerms is Compose over a CommissionTerms value.
func ComposeTerms(t CommissionTerms) decimal.Decimal {
	return Compose(t.Base, t.Delta, t.WaitingDays)
}

// Compose returns base + delta + waitingDays. No rounding is applied.
func Compose(base, delta, waitingDays decimal.Decimal) decimal.Decimal {
	return base.Add(delta).Add(waitingDays)
}

// TermFromAny converts a loosely typed percentage into a term.
// Absent, non-numeric and non-finite values yield 0.
func TermFromAny(v any) decimal.Decimal {
	d, ok := parseDecimal(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

// parseDecimal accepts the numeric shapes found in decoded JSON payloads and
// form inputs. Thousands separators written as commas are ignored.
func parseDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return parseDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}
