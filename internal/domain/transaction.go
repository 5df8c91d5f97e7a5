package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus tracks whether a transaction can still be edited.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionFinalized TransactionStatus = "finalized"
)

// Transaction is a money movement registered for a client.
type Transaction struct {
	ID        string
	ClientID  string
	ServiceID string

	FaceAmount      decimal.Decimal
	DeltaPercentage decimal.Decimal
	DiscountMode    bool

	RegisteredAt time.Time
	// DeliveryAt is the delivery or withdrawal date, unset until agreed.
	DeliveryAt *time.Time

	// Resolved at save time; the server is the authority for these.
	BasePercentage        decimal.Decimal
	WaitingDaysPercentage decimal.Decimal
	CommissionAmount      decimal.Decimal
	NetAmount             decimal.Decimal

	Source      *PaySource
	Destination *Destination
	GroupID     *string

	Status    TransactionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the user-supplied fields.
func (t *Transaction) Validate() error {
	if t.ClientID == "" {
		return fmt.Errorf("%w: client is required", ErrInvalidName)
	}
	if t.ServiceID == "" {
		return ErrServiceNotFound
	}
	if err := ValidateFaceAmount(t.FaceAmount); err != nil {
		return err
	}
	if err := ValidateDelta(t.DeltaPercentage); err != nil {
		return err
	}
	if t.RegisteredAt.IsZero() {
		return fmt.Errorf("%w: registration date is required", ErrInvalidDates)
	}
	return nil
}

// Terms returns the commission terms recorded on the transaction.
func (t *Transaction) Terms() CommissionTerms {
	return CommissionTerms{
		Base:        t.BasePercentage,
		Delta:       t.DeltaPercentage,
		WaitingDays: t.WaitingDaysPercentage,
	}
}

// IsEditable reports whether mutable fields may still change.
func (t *Transaction) IsEditable() bool {
	return t.Status != TransactionFinalized
}

// ApplyQuote stores the rounded settlement figures of a ready quote.
func (t *Transaction) ApplyQuote(q Quote) {
	t.BasePercentage = q.Terms.Base
	t.WaitingDaysPercentage = q.Terms.WaitingDays
	if q.Settlement == nil {
		t.CommissionAmount = decimal.Zero
		t.NetAmount = decimal.Zero
		return
	}
	rounded := q.Settlement.Rounded()
	t.CommissionAmount = rounded.CommissionAmount
	t.NetAmount = rounded.NetAmount
}
