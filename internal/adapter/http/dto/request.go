package dto

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// CreateServiceRequest represents a request to create a service.
type CreateServiceRequest struct {
	Name         string `json:"name"`
	FromCurrency string `json:"fromCurrency"`
	ToCurrency   string `json:"toCurrency"`
	Kind         string `json:"kind"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateServiceRequest) ToUseCaseInput() usecase.CreateServiceInput {
	return usecase.CreateServiceInput{
		Name:         r.Name,
		FromCurrency: r.FromCurrency,
		ToCurrency:   r.ToCurrency,
		Kind:         domain.ServiceKind(r.Kind),
	}
}

// WaitingDayTierRequest is one row of a waiting-days schedule.
type WaitingDayTierRequest struct {
	WaitingDays          int             `json:"waitingDays"`
	AdditionalPercentage decimal.Decimal `json:"additionalPercentage"`
}

// CreateCommissionRequest represents a request to record a commission.
type CreateCommissionRequest struct {
	Commission decimal.Decimal         `json:"commission"`
	Tiers      []WaitingDayTierRequest `json:"tiers"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"isActive,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCommissionRequest) ToUseCaseInput(serviceID string) usecase.CreateCommissionInput {
	tiers := make([]domain.WaitingDayTier, 0, len(r.Tiers))
	for _, t := range r.Tiers {
		tiers = append(tiers, domain.WaitingDayTier{
			WaitingDays:          t.WaitingDays,
			AdditionalPercentage: t.AdditionalPercentage,
		})
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	return usecase.CreateCommissionInput{
		ServiceID:  serviceID,
		Commission: r.Commission,
		Tiers:      tiers,
		IsActive:   active,
	}
}

// QuoteRequest asks for a settlement preview.
type QuoteRequest struct {
	ServiceID       string           `json:"serviceId"`
	FaceAmount      *decimal.Decimal `json:"faceAmount"`
	DeltaPercentage decimal.Decimal  `json:"deltaPercentage"`
	DiscountMode    bool             `json:"discountMode"`
	RegisteredAt    *Date            `json:"registeredAt,omitempty"`
	DeliveryAt      *Date            `json:"deliveryAt,omitempty"`
	Destination     json.RawMessage  `json:"destination,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *QuoteRequest) ToUseCaseInput() usecase.QuoteInput {
	return usecase.QuoteInput{
		ServiceID:       r.ServiceID,
		FaceAmount:      r.FaceAmount,
		DeltaPercentage: r.DeltaPercentage,
		DiscountMode:    r.DiscountMode,
		RegisteredAt:    r.RegisteredAt.Ptr(),
		DeliveryAt:      r.DeliveryAt.Ptr(),
		Destination:     rawDescriptor(r.Destination),
	}
}

// CreateTransactionRequest represents a request to create a transaction.
type CreateTransactionRequest struct {
	ClientID        string          `json:"clientId"`
	ServiceID       string          `json:"serviceId"`
	FaceAmount      decimal.Decimal `json:"faceAmount"`
	DeltaPercentage decimal.Decimal `json:"deltaPercentage"`
	DiscountMode    bool            `json:"discountMode"`
	RegisteredAt    Date            `json:"registeredAt"`
	DeliveryAt      *Date           `json:"deliveryAt,omitempty"`
	GroupID         *string         `json:"transactionGroupId,omitempty"`
	Source          json.RawMessage `json:"source,omitempty"`
	Destination     json.RawMessage `json:"destination,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		ClientID:        r.ClientID,
		ServiceID:       r.ServiceID,
		FaceAmount:      r.FaceAmount,
		DeltaPercentage: r.DeltaPercentage,
		DiscountMode:    r.DiscountMode,
		RegisteredAt:    r.RegisteredAt.Time,
		DeliveryAt:      r.DeliveryAt.Ptr(),
		GroupID:         r.GroupID,
		Source:          rawDescriptor(r.Source),
		Destination:     rawDescriptor(r.Destination),
	}
}

// UpdateTransactionRequest replaces the mutable fields of a transaction.
type UpdateTransactionRequest struct {
	ServiceID       string          `json:"serviceId"`
	FaceAmount      decimal.Decimal `json:"faceAmount"`
	DeltaPercentage decimal.Decimal `json:"deltaPercentage"`
	DiscountMode    bool            `json:"discountMode"`
	RegisteredAt    Date            `json:"registeredAt"`
	DeliveryAt      *Date           `json:"deliveryAt,omitempty"`
	Source          json.RawMessage `json:"source,omitempty"`
	Destination     json.RawMessage `json:"destination,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateTransactionRequest) ToUseCaseInput(id string) usecase.UpdateTransactionInput {
	return usecase.UpdateTransactionInput{
		ID:              id,
		ServiceID:       r.ServiceID,
		FaceAmount:      r.FaceAmount,
		DeltaPercentage: r.DeltaPercentage,
		DiscountMode:    r.DiscountMode,
		RegisteredAt:    r.RegisteredAt.Time,
		DeliveryAt:      r.DeliveryAt.Ptr(),
		Source:          rawDescriptor(r.Source),
		Destination:     rawDescriptor(r.Destination),
	}
}

// CreateGroupRequest represents a request to create a transaction group.
type CreateGroupRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Note  string `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateGroupRequest) ToUseCaseInput(clientID string) usecase.CreateGroupInput {
	return usecase.CreateGroupInput{
		ClientID: clientID,
		Name:     r.Name,
		Color:    r.Color,
		Note:     r.Note,
	}
}

// ChangeGroupRequest sets or clears the group of a transaction. A null or
// empty transactionGroupId removes the transaction from its group.
type ChangeGroupRequest struct {
	GroupID *string `json:"transactionGroupId"`
}

// ToUseCaseInput converts to use case input.
func (r *ChangeGroupRequest) ToUseCaseInput(transactionID string) usecase.ChangeGroupInput {
	groupID := r.GroupID
	if groupID != nil && *groupID == "" {
		groupID = nil
	}
	return usecase.ChangeGroupInput{
		TransactionID: transactionID,
		GroupID:       groupID,
	}
}

// rawDescriptor hands a descriptor to the normalizer, mapping an absent or
// null field to a nil interface.
func rawDescriptor(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.RawMessage(trimmed)
}
