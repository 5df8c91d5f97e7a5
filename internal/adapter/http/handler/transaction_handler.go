package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error)
	UpdateTransaction(ctx context.Context, input usecase.UpdateTransactionInput) (*usecase.TransactionResult, error)
	FinalizeTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactionsByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error)
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Create creates a new transaction.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.transactionUC.CreateTransaction(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionResultToResponse(result))
}

// Update replaces the mutable fields of a pending transaction.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.transactionUC.UpdateTransaction(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err, "failed to update transaction")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionResultToResponse(result))
}

// Finalize closes a transaction for edits.
func (h *TransactionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.transactionUC.FinalizeTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "failed to finalize transaction")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.transactionUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "failed to get transaction")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// ListByClient lists the transactions of a client, newest first.
func (h *TransactionHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	transactions, err := h.transactionUC.ListTransactionsByClient(r.Context(), chi.URLParam(r, "clientID"), limit, offset)
	if err != nil {
		writeDomainError(w, err, "failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(transactions))
}
