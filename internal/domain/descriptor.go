package domain

import "github.com/shopspring/decimal"

// SourceType discriminates how a transaction was paid.
type SourceType string

const (
	SourceDigital SourceType = "digital"
	SourceCash    SourceType = "cash"
)

// PaySource describes how the client paid. Digital sources carry bank
// identifiers; cash sources carry a box and the counted denominations.
type PaySource struct {
	Type SourceType `json:"type"`

	// Digital
	CountryID     string `json:"countryId,omitempty"`
	BankID        string `json:"bankId,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Reference     string `json:"reference,omitempty"`
	HolderName    string `json:"holderName,omitempty"`

	CurrencyID string `json:"currencyId,omitempty"`

	// Cash
	BoxID         string             `json:"boxId,omitempty"`
	Denominations []CashDenomination `json:"denominations,omitempty"`
	CashTotal     *decimal.Decimal   `json:"cashTotal,omitempty"`
}

// CashDenomination is a counted bill or coin value.
type CashDenomination struct {
	Denomination decimal.Decimal `json:"denomination"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// Subtotal returns denomination * quantity.
func (c CashDenomination) Subtotal() decimal.Decimal {
	return c.Denomination.Mul(c.Quantity)
}

// CashTotalOf sums the denomination subtotals.
func CashTotalOf(denominations []CashDenomination) decimal.Decimal {
	total := decimal.Zero
	for _, d := range denominations {
		total = total.Add(d.Subtotal())
	}
	return total
}

// DestinationType discriminates where settled funds go.
type DestinationType string

const (
	DestinationBank   DestinationType = "bank"
	DestinationPerson DestinationType = "person"
)

// Destination describes where the net amount is sent, possibly split.
type Destination struct {
	Note  string            `json:"note,omitempty"`
	Type  DestinationType   `json:"type"`
	Items []DestinationItem `json:"items"`
}

// DestinationItem is one recipient. Label is a bank name or a person name and
// Identifier an account or document number, depending on the destination type.
type DestinationItem struct {
	Label      string          `json:"label,omitempty"`
	Identifier string          `json:"identifier,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// Amounts returns the item amounts in order.
func (d *Destination) Amounts() []decimal.Decimal {
	if d == nil {
		return nil
	}
	amounts := make([]decimal.Decimal, len(d.Items))
	for i, item := range d.Items {
		amounts[i] = item.Amount
	}
	return amounts
}

// Balance compares destination allocations against a net amount. It is
// advisory: an over-allocated destination is still saved.
type Balance struct {
	TotalAllocated decimal.Decimal
	Remainder      decimal.Decimal
	OverAllocated  bool
}

// CheckDestinationBalance sums the item amounts, skipping negative ones, and
// compares the total against net.
func CheckDestinationBalance(items []DestinationItem, net decimal.Decimal) Balance {
	total := decimal.Zero
	for _, item := range items {
		if item.Amount.IsNegative() {
			continue
		}
		total = total.Add(item.Amount)
	}

	remainder := net.Sub(total)
	if remainder.IsNegative() {
		remainder = decimal.Zero
	}

	return Balance{
		TotalAllocated: total,
		Remainder:      remainder,
		OverAllocated:  total.GreaterThan(net),
	}
}
