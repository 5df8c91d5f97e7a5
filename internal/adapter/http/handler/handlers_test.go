package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

type serviceCatalogStub struct {
	createFn           func(ctx context.Context, input usecase.CreateServiceInput) (*domain.Service, error)
	getFn              func(ctx context.Context, id string) (*domain.Service, error)
	listFn             func(ctx context.Context, limit, offset int) ([]*domain.Service, error)
	createCommissionFn func(ctx context.Context, input usecase.CreateCommissionInput) (*domain.ServiceCommission, error)
	listCommissionsFn  func(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error)
	commissionByDayFn  func(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error)
}

func (s *serviceCatalogStub) CreateService(ctx context.Context, input usecase.CreateServiceInput) (*domain.Service, error) {
	return s.createFn(ctx, input)
}

func (s *serviceCatalogStub) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return s.getFn(ctx, id)
}

func (s *serviceCatalogStub) ListServices(ctx context.Context, limit, offset int) ([]*domain.Service, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *serviceCatalogStub) CreateCommission(ctx context.Context, input usecase.CreateCommissionInput) (*domain.ServiceCommission, error) {
	return s.createCommissionFn(ctx, input)
}

func (s *serviceCatalogStub) ListCommissions(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error) {
	return s.listCommissionsFn(ctx, serviceID, activeOnly)
}

func (s *serviceCatalogStub) CommissionByDay(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error) {
	return s.commissionByDayFn(ctx, serviceID, minDate, maxDate)
}

type quoteServiceStub struct {
	quoteFn func(ctx context.Context, input usecase.QuoteInput) (*usecase.QuoteOutput, error)
}

func (s *quoteServiceStub) Quote(ctx context.Context, input usecase.QuoteInput) (*usecase.QuoteOutput, error) {
	return s.quoteFn(ctx, input)
}

type transactionServiceStub struct {
	createFn   func(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error)
	updateFn   func(ctx context.Context, input usecase.UpdateTransactionInput) (*usecase.TransactionResult, error)
	finalizeFn func(ctx context.Context, id string) (*domain.Transaction, error)
	getFn      func(ctx context.Context, id string) (*domain.Transaction, error)
	listFn     func(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error)
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error) {
	return s.createFn(ctx, input)
}

func (s *transactionServiceStub) UpdateTransaction(ctx context.Context, input usecase.UpdateTransactionInput) (*usecase.TransactionResult, error) {
	return s.updateFn(ctx, input)
}

func (s *transactionServiceStub) FinalizeTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.finalizeFn(ctx, id)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) ListTransactionsByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error) {
	return s.listFn(ctx, clientID, limit, offset)
}

type groupServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateGroupInput) (*domain.TransactionGroup, error)
	listFn   func(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error)
	changeFn func(ctx context.Context, input usecase.ChangeGroupInput) domain.GroupChangeResult
}

func (s *groupServiceStub) CreateGroup(ctx context.Context, input usecase.CreateGroupInput) (*domain.TransactionGroup, error) {
	return s.createFn(ctx, input)
}

func (s *groupServiceStub) ListGroups(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error) {
	return s.listFn(ctx, clientID)
}

func (s *groupServiceStub) ChangeGroup(ctx context.Context, input usecase.ChangeGroupInput) domain.GroupChangeResult {
	return s.changeFn(ctx, input)
}

// withURLParams attaches chi route parameters to a request.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestServiceHandler_Create(t *testing.T) {
	var captured usecase.CreateServiceInput
	h := NewServiceHandler(&serviceCatalogStub{
		createFn: func(ctx context.Context, input usecase.CreateServiceInput) (*domain.Service, error) {
			captured = input
			return &domain.Service{ID: "svc-1", Name: input.Name, Kind: input.Kind}, nil
		},
	})

	body := `{"name":"USD to EUR","fromCurrency":"usd","toCurrency":"eur","kind":"exchange"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Kind != domain.ServiceKindExchange || captured.FromCurrency != "usd" {
		t.Fatalf("unexpected input: %+v", captured)
	}
	if resp := decodeResponse[dto.ServiceResponse](t, rec); resp.ID != "svc-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestServiceHandler_CreateRejectsMalformedBody(t *testing.T) {
	h := NewServiceHandler(&serviceCatalogStub{})

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(`{"name":`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestServiceHandler_GetNotFound(t *testing.T) {
	h := NewServiceHandler(&serviceCatalogStub{
		getFn: func(ctx context.Context, id string) (*domain.Service, error) {
			return nil, domain.ErrServiceNotFound
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/services/missing", nil), map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServiceHandler_ListCommissionsActiveFilter(t *testing.T) {
	var gotService string
	var gotActive bool
	h := NewServiceHandler(&serviceCatalogStub{
		listCommissionsFn: func(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error) {
			gotService, gotActive = serviceID, activeOnly
			return []*domain.ServiceCommission{{ID: "c-1", ServiceID: serviceID, Commission: decimal.NewFromInt(2), IsActive: true}}, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/services/svc-1/commissions?isActive=true", nil), map[string]string{"id": "svc-1"})
	rec := httptest.NewRecorder()
	h.ListCommissions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotService != "svc-1" || !gotActive {
		t.Fatalf("expected active filter for svc-1, got %s %v", gotService, gotActive)
	}
	if list := decodeResponse[[]dto.CommissionResponse](t, rec); len(list) != 1 || list[0].Commission != "2" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestServiceHandler_CommissionByDay(t *testing.T) {
	var gotMin, gotMax *time.Time
	h := NewServiceHandler(&serviceCatalogStub{
		commissionByDayFn: func(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error) {
			gotMin, gotMax = minDate, maxDate
			return decimal.RequireFromString("0.75"), nil
		},
	})

	req := withURLParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/services/svc-1/commission-by-day?minDate=2024-03-01&maxDate=2024-03-04", nil),
		map[string]string{"id": "svc-1"},
	)
	rec := httptest.NewRecorder()
	h.CommissionByDay(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotMin == nil || gotMax == nil {
		t.Fatal("expected both dates to be passed")
	}

	resp := decodeResponse[dto.CommissionByDayResponse](t, rec)
	if resp.Percentage != "0.75" || resp.ElapsedDays == nil || *resp.ElapsedDays != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestServiceHandler_CommissionByDayMissingDate(t *testing.T) {
	h := NewServiceHandler(&serviceCatalogStub{
		commissionByDayFn: func(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error) {
			if maxDate != nil {
				t.Fatalf("expected nil maxDate, got %v", maxDate)
			}
			return decimal.Zero, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/x?minDate=2024-03-01", nil), map[string]string{"id": "svc-1"})
	rec := httptest.NewRecorder()
	h.CommissionByDay(rec, req)

	resp := decodeResponse[dto.CommissionByDayResponse](t, rec)
	if resp.Percentage != "0" || resp.ElapsedDays != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	req = withURLParams(httptest.NewRequest(http.MethodGet, "/x?minDate=yesterday", nil), map[string]string{"id": "svc-1"})
	rec = httptest.NewRecorder()
	h.CommissionByDay(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestQuoteHandler_Create(t *testing.T) {
	var captured usecase.QuoteInput
	h := NewQuoteHandler(&quoteServiceStub{
		quoteFn: func(ctx context.Context, input usecase.QuoteInput) (*usecase.QuoteOutput, error) {
			captured = input
			return &usecase.QuoteOutput{
				Quote: domain.Quote{
					Status:              domain.QuoteReady,
					EffectivePercentage: decimal.NewFromInt(3),
					Settlement: &domain.Settlement{
						FaceAmount:          decimal.NewFromInt(1000),
						EffectivePercentage: decimal.NewFromInt(3),
						CommissionAmount:    decimal.NewFromInt(30),
						NetAmount:           decimal.NewFromInt(970),
					},
				},
				Warnings: []string{"destination exceeds net amount"},
			}, nil
		},
	})

	body := `{"serviceId":"svc-1","faceAmount":"1000","deltaPercentage":"1","registeredAt":"2024-03-01","destination":{"items":[{"amount":"1000"}]}}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.FaceAmount == nil || !captured.FaceAmount.Equal(decimal.NewFromInt(1000)) || captured.RegisteredAt == nil {
		t.Fatalf("unexpected input: %+v", captured)
	}

	resp := decodeResponse[dto.QuoteResponse](t, rec)
	if resp.Status != "ready" || resp.NetAmount == nil || *resp.NetAmount != "970.00" || len(resp.Warnings) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestQuoteHandler_UnknownService(t *testing.T) {
	h := NewQuoteHandler(&quoteServiceStub{
		quoteFn: func(ctx context.Context, input usecase.QuoteInput) (*usecase.QuoteOutput, error) {
			return nil, domain.ErrServiceNotFound
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"serviceId":"missing"}`)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestQuoteHandler_UnavailableIsNotAnError(t *testing.T) {
	h := NewQuoteHandler(&quoteServiceStub{
		quoteFn: func(ctx context.Context, input usecase.QuoteInput) (*usecase.QuoteOutput, error) {
			return &usecase.QuoteOutput{Quote: domain.Quote{Status: domain.QuoteUnavailable}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quotes",
		strings.NewReader(`{"serviceId":"svc-1","faceAmount":"-5"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse[dto.QuoteResponse](t, rec)
	if resp.Status != "unavailable" || resp.NetAmount != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTransactionHandler_Create(t *testing.T) {
	var captured usecase.CreateTransactionInput
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*usecase.TransactionResult, error) {
			captured = input
			return &usecase.TransactionResult{
				Transaction: &domain.Transaction{
					ID:         "tx-1",
					ClientID:   input.ClientID,
					FaceAmount: input.FaceAmount,
					NetAmount:  decimal.NewFromInt(980),
					Status:     domain.TransactionPending,
				},
			}, nil
		},
	})

	body := `{"clientId":"client-1","serviceId":"svc-1","faceAmount":"1000","registeredAt":"2024-03-01","source":{"type":"digital","bank":"B1"}}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ClientID != "client-1" || captured.Source == nil || captured.Destination != nil {
		t.Fatalf("unexpected input: %+v", captured)
	}

	resp := decodeResponse[dto.TransactionResponse](t, rec)
	if resp.ID != "tx-1" || resp.NetAmount != "980.00" || resp.Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTransactionHandler_UpdateFinalized(t *testing.T) {
	var gotID string
	h := NewTransactionHandler(&transactionServiceStub{
		updateFn: func(ctx context.Context, input usecase.UpdateTransactionInput) (*usecase.TransactionResult, error) {
			gotID = input.ID
			return nil, domain.ErrTransactionFinalized
		},
	})

	req := withURLParams(
		httptest.NewRequest(http.MethodPut, "/api/v1/transactions/tx-9", strings.NewReader(`{"serviceId":"svc-1","faceAmount":"1","registeredAt":"2024-03-01"}`)),
		map[string]string{"id": "tx-9"},
	)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if gotID != "tx-9" {
		t.Fatalf("expected id from path, got %q", gotID)
	}
}

func TestTransactionHandler_FinalizeAndGet(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		finalizeFn: func(ctx context.Context, id string) (*domain.Transaction, error) {
			return &domain.Transaction{ID: id, Status: domain.TransactionFinalized}, nil
		},
		getFn: func(ctx context.Context, id string) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionNotFound
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/transactions/tx-1/finalize", nil), map[string]string{"id": "tx-1"})
	rec := httptest.NewRecorder()
	h.Finalize(rec, req)
	if rec.Code != http.StatusOK || decodeResponse[dto.TransactionResponse](t, rec).Status != "finalized" {
		t.Fatalf("unexpected finalize response %d: %s", rec.Code, rec.Body.String())
	}

	req = withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/transactions/tx-2", nil), map[string]string{"id": "tx-2"})
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_ListByClient(t *testing.T) {
	var gotClient string
	var gotLimit, gotOffset int
	h := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error) {
			gotClient, gotLimit, gotOffset = clientID, limit, offset
			return nil, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/clients/c-1/transactions?limit=5&offset=10", nil), map[string]string{"clientID": "c-1"})
	rec := httptest.NewRecorder()
	h.ListByClient(rec, req)

	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}
	if gotClient != "c-1" || gotLimit != 5 || gotOffset != 10 {
		t.Fatalf("unexpected arguments: %s %d %d", gotClient, gotLimit, gotOffset)
	}
}

func TestGroupHandler_CreateAndList(t *testing.T) {
	var captured usecase.CreateGroupInput
	h := NewGroupHandler(&groupServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateGroupInput) (*domain.TransactionGroup, error) {
			captured = input
			if input.Color == "red" {
				return nil, domain.ErrInvalidColor
			}
			return &domain.TransactionGroup{ID: "g-1", ClientID: input.ClientID, Name: input.Name, Color: input.Color}, nil
		},
		listFn: func(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error) {
			return []*domain.TransactionGroup{{ID: "g-1", ClientID: clientID}}, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/clients/c-1/groups", strings.NewReader(`{"name":"March","color":"#0f0"}`)), map[string]string{"clientID": "c-1"})
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusCreated || captured.ClientID != "c-1" {
		t.Fatalf("unexpected create: %d %+v", rec.Code, captured)
	}

	req = withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/clients/c-1/groups", strings.NewReader(`{"name":"March","color":"red"}`)), map[string]string{"clientID": "c-1"})
	rec = httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid color, got %d", rec.Code)
	}

	req = withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/clients/c-1/groups", nil), map[string]string{"clientID": "c-1"})
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if list := decodeResponse[[]dto.GroupResponse](t, rec); len(list) != 1 || list[0].ClientID != "c-1" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestGroupHandler_ChangeGroupAlwaysOK(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result domain.GroupChangeResult
		wantID *string
	}{
		{
			name:   "assign",
			body:   `{"transactionGroupId":"g-1"}`,
			result: domain.GroupChangeResult{Result: domain.GroupChangeSuccess, Message: "added"},
		},
		{
			name:   "warning",
			body:   `{"transactionGroupId":"g-2"}`,
			result: domain.GroupChangeResult{Result: domain.GroupChangeWarning, Message: "the selected group belongs to a different client"},
		},
		{
			name:   "clear",
			body:   `{"transactionGroupId":null}`,
			result: domain.GroupChangeResult{Result: domain.GroupChangeSuccess, Message: "removed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured usecase.ChangeGroupInput
			h := NewGroupHandler(&groupServiceStub{
				changeFn: func(ctx context.Context, input usecase.ChangeGroupInput) domain.GroupChangeResult {
					captured = input
					r := tt.result
					r.GroupID = input.GroupID
					return r
				},
			})

			req := withURLParams(httptest.NewRequest(http.MethodPut, "/api/v1/transactions/changeGroup/tx-1", strings.NewReader(tt.body)), map[string]string{"id": "tx-1"})
			rec := httptest.NewRecorder()
			h.ChangeGroup(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if captured.TransactionID != "tx-1" {
				t.Fatalf("expected transaction id from path, got %q", captured.TransactionID)
			}

			resp := decodeResponse[dto.GroupChangeResponse](t, rec)
			if resp.Result != string(tt.result.Result) || resp.Message != tt.result.Message {
				t.Fatalf("unexpected response: %+v", resp)
			}
			if tt.name == "clear" && resp.GroupID != nil {
				t.Fatalf("expected cleared group, got %v", *resp.GroupID)
			}
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := CheckerFunc(func(ctx context.Context) error { return nil })
	down := CheckerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	NewHealthHandler(ok, ok).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(ok, down).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when redis is down, got %d", rec.Code)
	}
	if resp := decodeResponse[dto.ErrorResponse](t, rec); resp.Error != "redis unhealthy" {
		t.Fatalf("unexpected error body: %+v", resp)
	}
}
