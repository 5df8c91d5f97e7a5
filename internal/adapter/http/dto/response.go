package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// money renders an amount at two decimal places.
func money(d decimal.Decimal) string {
	return domain.RoundMoney(d).StringFixed(2)
}

func moneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}

// ServiceResponse represents a service in API responses.
type ServiceResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FromCurrency string    `json:"fromCurrency"`
	ToCurrency   string    `json:"toCurrency"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ServiceFromDomain converts a domain service to a response.
func ServiceFromDomain(s *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:           s.ID,
		Name:         s.Name,
		FromCurrency: s.FromCurrency,
		ToCurrency:   s.ToCurrency,
		Kind:         string(s.Kind),
		CreatedAt:    s.CreatedAt,
	}
}

// ServicesFromDomain converts a list of services.
func ServicesFromDomain(services []*domain.Service) []ServiceResponse {
	result := make([]ServiceResponse, len(services))
	for i, s := range services {
		result[i] = ServiceFromDomain(s)
	}
	return result
}

// WaitingDayTierResponse is one row of a waiting-days schedule.
type WaitingDayTierResponse struct {
	WaitingDays          int    `json:"waitingDays"`
	AdditionalPercentage string `json:"additionalPercentage"`
}

// CommissionResponse represents a commission record.
type CommissionResponse struct {
	ID         string                   `json:"id"`
	ServiceID  string                   `json:"serviceId"`
	Commission string                   `json:"commission"`
	Tiers      []WaitingDayTierResponse `json:"tiers"`
	IsActive   bool                     `json:"isActive"`
	CreatedAt  time.Time                `json:"createdAt"`
}

// CommissionFromDomain converts a domain commission record to a response.
func CommissionFromDomain(c *domain.ServiceCommission) CommissionResponse {
	tiers := make([]WaitingDayTierResponse, len(c.Tiers))
	for i, t := range c.Tiers {
		tiers[i] = WaitingDayTierResponse{
			WaitingDays:          t.WaitingDays,
			AdditionalPercentage: t.AdditionalPercentage.String(),
		}
	}
	return CommissionResponse{
		ID:         c.ID,
		ServiceID:  c.ServiceID,
		Commission: c.Commission.String(),
		Tiers:      tiers,
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
	}
}

// CommissionsFromDomain converts a list of commission records.
func CommissionsFromDomain(records []*domain.ServiceCommission) []CommissionResponse {
	result := make([]CommissionResponse, len(records))
	for i, c := range records {
		result[i] = CommissionFromDomain(c)
	}
	return result
}

// CommissionByDayResponse carries a resolved waiting-days surcharge.
type CommissionByDayResponse struct {
	ServiceID   string `json:"serviceId"`
	ElapsedDays *int   `json:"elapsedDays,omitempty"`
	Percentage  string `json:"percentage"`
}

// TermsResponse lists the commission terms a quote was composed from.
type TermsResponse struct {
	Base        string `json:"base"`
	Delta       string `json:"delta"`
	WaitingDays string `json:"waitingDays"`
}

func termsFromDomain(t domain.CommissionTerms) TermsResponse {
	return TermsResponse{
		Base:        t.Base.String(),
		Delta:       t.Delta.String(),
		WaitingDays: t.WaitingDays.String(),
	}
}

// BalanceResponse is the destination balance check.
type BalanceResponse struct {
	TotalAllocated string `json:"totalAllocated"`
	Remainder      string `json:"remainder"`
	OverAllocated  bool   `json:"overAllocated"`
}

func balanceFromDomain(b *domain.Balance) *BalanceResponse {
	if b == nil {
		return nil
	}
	return &BalanceResponse{
		TotalAllocated: money(b.TotalAllocated),
		Remainder:      money(b.Remainder),
		OverAllocated:  b.OverAllocated,
	}
}

// QuoteResponse is a settlement preview. Amounts are absent unless status is
// ready.
type QuoteResponse struct {
	Status              string              `json:"status"`
	Terms               TermsResponse       `json:"terms"`
	EffectivePercentage string              `json:"effectivePercentage"`
	CommissionAmount    *string             `json:"commissionAmount,omitempty"`
	NetAmount           *string             `json:"netAmount,omitempty"`
	Balance             *BalanceResponse    `json:"balance,omitempty"`
	Destination         *domain.Destination `json:"destination,omitempty"`
	Warnings            []string            `json:"warnings,omitempty"`
}

// QuoteFromDomain converts a quote to a response.
func QuoteFromDomain(q domain.Quote) QuoteResponse {
	resp := QuoteResponse{
		Status:              string(q.Status),
		Terms:               termsFromDomain(q.Terms),
		EffectivePercentage: q.EffectivePercentage.String(),
		Balance:             balanceFromDomain(q.Balance),
	}
	if q.Settlement != nil {
		rounded := q.Settlement.Rounded()
		resp.CommissionAmount = moneyPtr(&rounded.CommissionAmount)
		resp.NetAmount = moneyPtr(&rounded.NetAmount)
	}
	return resp
}

// QuoteOutputToResponse converts a use case quote output to a response.
func QuoteOutputToResponse(out *usecase.QuoteOutput) QuoteResponse {
	resp := QuoteFromDomain(out.Quote)
	resp.Destination = out.Destination
	resp.Warnings = out.Warnings
	return resp
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID                    string              `json:"id"`
	ClientID              string              `json:"clientId"`
	ServiceID             string              `json:"serviceId"`
	FaceAmount            string              `json:"faceAmount"`
	DeltaPercentage       string              `json:"deltaPercentage"`
	DiscountMode          bool                `json:"discountMode"`
	RegisteredAt          time.Time           `json:"registeredAt"`
	DeliveryAt            *time.Time          `json:"deliveryAt,omitempty"`
	BasePercentage        string              `json:"basePercentage"`
	WaitingDaysPercentage string              `json:"waitingDaysPercentage"`
	EffectivePercentage   string              `json:"effectivePercentage"`
	CommissionAmount      string              `json:"commissionAmount"`
	NetAmount             string              `json:"netAmount"`
	Source                *domain.PaySource   `json:"source,omitempty"`
	Destination           *domain.Destination `json:"destination,omitempty"`
	GroupID               *string             `json:"transactionGroupId"`
	Status                string              `json:"status"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
	Balance               *BalanceResponse    `json:"balance,omitempty"`
	Warnings              []string            `json:"warnings,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                    t.ID,
		ClientID:              t.ClientID,
		ServiceID:             t.ServiceID,
		FaceAmount:            money(t.FaceAmount),
		DeltaPercentage:       t.DeltaPercentage.String(),
		DiscountMode:          t.DiscountMode,
		RegisteredAt:          t.RegisteredAt,
		DeliveryAt:            t.DeliveryAt,
		BasePercentage:        t.BasePercentage.String(),
		WaitingDaysPercentage: t.WaitingDaysPercentage.String(),
		EffectivePercentage:   t.Terms().Effective().String(),
		CommissionAmount:      money(t.CommissionAmount),
		NetAmount:             money(t.NetAmount),
		Source:                t.Source,
		Destination:           t.Destination,
		GroupID:               t.GroupID,
		Status:                string(t.Status),
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

// TransactionsFromDomain converts a list of transactions.
func TransactionsFromDomain(transactions []*domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// TransactionResultToResponse converts a saved transaction with its quote.
func TransactionResultToResponse(r *usecase.TransactionResult) TransactionResponse {
	resp := TransactionFromDomain(r.Transaction)
	resp.Balance = balanceFromDomain(r.Quote.Balance)
	resp.Warnings = r.Warnings
	return resp
}

// GroupResponse represents a transaction group.
type GroupResponse struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupFromDomain converts a domain group to a response.
func GroupFromDomain(g *domain.TransactionGroup) GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		ClientID:  g.ClientID,
		Name:      g.Name,
		Color:     g.Color,
		Note:      g.Note,
		CreatedAt: g.CreatedAt,
	}
}

// GroupsFromDomain converts a list of groups.
func GroupsFromDomain(groups []*domain.TransactionGroup) []GroupResponse {
	result := make([]GroupResponse, len(groups))
	for i, g := range groups {
		result[i] = GroupFromDomain(g)
	}
	return result
}

// GroupChangeResponse reports the outcome of a group membership update.
type GroupChangeResponse struct {
	Result  string  `json:"result"`
	Message string  `json:"message"`
	GroupID *string `json:"transactionGroupId"`
}

// GroupChangeFromDomain converts a group change result to a response.
func GroupChangeFromDomain(r domain.GroupChangeResult) GroupChangeResponse {
	return GroupChangeResponse{
		Result:  string(r.Result),
		Message: r.Message,
		GroupID: r.GroupID,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
