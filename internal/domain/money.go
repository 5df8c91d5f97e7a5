package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places amounts are shown and stored with.
const MoneyScale = 2

// divisionScale bounds intermediate quotients. Results are only rounded to
// MoneyScale at the presentation and persistence boundaries.
const divisionScale = 16

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount half away from zero to MoneyScale places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundMoneyPtr is RoundMoney for optional amounts.
func RoundMoneyPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := RoundMoney(*d)
	return &r
}
