package domain

import "github.com/shopspring/decimal"

// Settlement is the derived result of applying a commission to a face amount.
// It is never stored as-is; callers recompute it whenever an input changes.
type Settlement struct {
	FaceAmount          decimal.Decimal
	EffectivePercentage decimal.Decimal
	CommissionAmount    decimal.Decimal
	NetAmount           decimal.Decimal
}

// Settle derives the commission and net amounts.
//
// With discountMode off the commission is a straight percentage of the face
// amount and is deducted from it. With discountMode on the face amount already
// contains the commission, which is extracted:
//
//	commission = face * pct / (100 + pct)
//	net        = face * 100 / (100 + pct)
func Settle(face, pct decimal.Decimal, discountMode bool) (Settlement, error) {
	if face.IsNegative() {
		return Settlement{}, ErrAmountUnavailable
	}

	if !discountMode {
		commission := face.Mul(pct).DivRound(hundred, divisionScale)
		return Settlement{
			FaceAmount:          face,
			EffectivePercentage: pct,
			CommissionAmount:    commission,
			NetAmount:           face.Sub(commission),
		}, nil
	}

	denominator := hundred.Add(pct)
	if denominator.Sign() <= 0 {
		return Settlement{}, ErrInvalidPercentage
	}

	return Settlement{
		FaceAmount:          face,
		EffectivePercentage: pct,
		CommissionAmount:    face.Mul(pct).DivRound(denominator, divisionScale),
		NetAmount:           face.Mul(hundred).DivRound(denominator, divisionScale),
	}, nil
}

// Rounded returns the settlement at MoneyScale. The net amount is taken from
// the rounded face and commission, so commission + net equals the rounded face.
func (s Settlement) Rounded() Settlement {
	face := RoundMoney(s.FaceAmount)
	commission := RoundMoney(s.CommissionAmount)
	return Settlement{
		FaceAmount:          face,
		EffectivePercentage: s.EffectivePercentage,
		CommissionAmount:    commission,
		NetAmount:           face.Sub(commission),
	}
}

// GrossFromNet reverses Settle: it returns the face amount that settles to net
// under the same percentage and mode.
func GrossFromNet(net, pct decimal.Decimal, discountMode bool) (decimal.Decimal, error) {
	if net.IsNegative() {
		return decimal.Zero, ErrAmountUnavailable
	}

	if discountMode {
		if hundred.Add(pct).Sign() <= 0 {
			return decimal.Zero, ErrInvalidPercentage
		}
		return net.Mul(hundred.Add(pct)).DivRound(hundred, divisionScale), nil
	}

	denominator := hundred.Sub(pct)
	if denominator.Sign() <= 0 {
		return decimal.Zero, ErrInvalidPercentage
	}

	return net.Mul(hundred).DivRound(denominator, divisionScale), nil
}
