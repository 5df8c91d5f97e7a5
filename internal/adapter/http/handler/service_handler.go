package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// ServiceCatalog defines the behavior needed by ServiceHandler.
type ServiceCatalog interface {
	CreateService(ctx context.Context, input usecase.CreateServiceInput) (*domain.Service, error)
	GetService(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context, limit, offset int) ([]*domain.Service, error)
	CreateCommission(ctx context.Context, input usecase.CreateCommissionInput) (*domain.ServiceCommission, error)
	ListCommissions(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error)
	CommissionByDay(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error)
}

// ServiceHandler handles services and their commission records.
type ServiceHandler struct {
	catalog ServiceCatalog
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(catalog ServiceCatalog) *ServiceHandler {
	return &ServiceHandler{catalog: catalog}
}

// Create creates a new service.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	service, err := h.catalog.CreateService(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to create service")
		return
	}

	writeJSON(w, http.StatusCreated, dto.ServiceFromDomain(service))
}

// Get retrieves a service by ID.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	service, err := h.catalog.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "failed to get service")
		return
	}

	writeJSON(w, http.StatusOK, dto.ServiceFromDomain(service))
}

// List lists services.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	services, err := h.catalog.ListServices(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, "failed to list services")
		return
	}

	writeJSON(w, http.StatusOK, dto.ServicesFromDomain(services))
}

// CreateCommission records a commission for a service.
func (h *ServiceHandler) CreateCommission(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCommissionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	commission, err := h.catalog.CreateCommission(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err, "failed to create commission")
		return
	}

	writeJSON(w, http.StatusCreated, dto.CommissionFromDomain(commission))
}

// ListCommissions lists the commission records of a service, newest first.
// ?isActive=true restricts the list to active records.
func (h *ServiceHandler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.ListCommissions(r.Context(), chi.URLParam(r, "id"), parseBoolQuery(r, "isActive", false))
	if err != nil {
		writeDomainError(w, err, "failed to list commissions")
		return
	}

	writeJSON(w, http.StatusOK, dto.CommissionsFromDomain(records))
}

// CommissionByDay resolves the waiting-days surcharge between minDate and
// maxDate.
func (h *ServiceHandler) CommissionByDay(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "id")

	minDate, err := dto.ParseDate(r.URL.Query().Get("minDate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid minDate", err.Error())
		return
	}
	maxDate, err := dto.ParseDate(r.URL.Query().Get("maxDate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maxDate", err.Error())
		return
	}

	start, end := optionalTime(minDate), optionalTime(maxDate)

	pct, err := h.catalog.CommissionByDay(r.Context(), serviceID, start, end)
	if err != nil {
		writeDomainError(w, err, "failed to resolve commission")
		return
	}

	resp := dto.CommissionByDayResponse{
		ServiceID:  serviceID,
		Percentage: pct.String(),
	}
	if start != nil && end != nil {
		days := domain.ElapsedDays(*start, *end)
		resp.ElapsedDays = &days
	}

	writeJSON(w, http.StatusOK, resp)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
