package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// QuoteStatus tells a caller whether the settlement figures can be shown.
type QuoteStatus string

const (
	QuoteReady             QuoteStatus = "ready"
	QuotePending           QuoteStatus = "pending"
	QuoteInvalidPercentage QuoteStatus = "invalid_percentage"
	QuoteUnavailable       QuoteStatus = "unavailable"
)

// QuoteInput gathers the inputs of one settlement computation.
type QuoteInput struct {
	// FaceAmount is nil while the amount has not been entered.
	FaceAmount   *decimal.Decimal
	Terms        CommissionTerms
	DiscountMode bool
	// Pending marks a term whose resolution is still in flight.
	Pending     bool
	Destination *Destination
}

// Quote is the derived view of a transaction: terms, settlement and the
// destination balance. Settlement and Balance are nil unless Status is ready.
type Quote struct {
	Status              QuoteStatus
	Terms               CommissionTerms
	EffectivePercentage decimal.Decimal
	Settlement          *Settlement
	Balance             *Balance
}

// BuildQuote runs composition, settlement and the balance check. Previews
// and saves both go through here so they agree on every figure.
func BuildQuote(in QuoteInput) Quote {
	q := Quote{
		Terms:               in.Terms,
		EffectivePercentage: in.Terms.Effective(),
	}

	if in.Pending {
		q.Status = QuotePending
		return q
	}

	if ValidateDelta(in.Terms.Delta) != nil {
		q.Status = QuoteInvalidPercentage
		return q
	}

	if in.FaceAmount == nil {
		q.Status = QuoteUnavailable
		return q
	}

	settlement, err := Settle(*in.FaceAmount, q.EffectivePercentage, in.DiscountMode)
	switch {
	case errors.Is(err, ErrInvalidPercentage):
		q.Status = QuoteInvalidPercentage
		return q
	case err != nil:
		q.Status = QuoteUnavailable
		return q
	}

	q.Status = QuoteReady
	q.Settlement = &settlement

	if in.Destination != nil {
		balance := CheckDestinationBalance(in.Destination.Items, settlement.NetAmount)
		q.Balance = &balance
	}

	return q
}
