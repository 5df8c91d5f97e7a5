package handler

import (
	"context"
	"net/http"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/usecase"
)

// QuoteService defines the behavior needed by QuoteHandler.
type QuoteService interface {
	Quote(ctx context.Context, input usecase.QuoteInput) (*usecase.QuoteOutput, error)
}

// QuoteHandler serves settlement previews.
type QuoteHandler struct {
	quoteUC QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quoteUC QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteUC: quoteUC}
}

// Create computes a quote. Non-ready statuses are still 200: the status field
// tells the caller why amounts are missing.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	out, err := h.quoteUC.Quote(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to compute quote")
		return
	}

	writeJSON(w, http.StatusOK, dto.QuoteOutputToResponse(out))
}
