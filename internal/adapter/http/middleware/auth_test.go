package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/infrastructure/auth"
)

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token, err := manager.Generate(&domain.Operator{ID: "op-1", Email: "op@example.com", Role: domain.RoleOperator})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domain.Operator
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetOperatorFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			AuthMiddleware(manager)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusOK && (seen == nil || seen.ID != "op-1") {
				t.Fatalf("expected operator in context, got %+v", seen)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		operator   *domain.Operator
		minRole    domain.Role
		wantStatus int
	}{
		{"no operator", nil, domain.RoleViewer, http.StatusUnauthorized},
		{"viewer reading", &domain.Operator{ID: "v", Role: domain.RoleViewer}, domain.RoleViewer, http.StatusOK},
		{"viewer writing", &domain.Operator{ID: "v", Role: domain.RoleViewer}, domain.RoleOperator, http.StatusForbidden},
		{"operator writing", &domain.Operator{ID: "o", Role: domain.RoleOperator}, domain.RoleOperator, http.StatusOK},
		{"operator administering", &domain.Operator{ID: "o", Role: domain.RoleOperator}, domain.RoleAdmin, http.StatusForbidden},
		{"admin administering", &domain.Operator{ID: "a", Role: domain.RoleAdmin}, domain.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/services", nil)
			if tt.operator != nil {
				req = req.WithContext(withOperator(req.Context(), tt.operator))
			}
			rr := httptest.NewRecorder()

			RequireRole(tt.minRole)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token, err := manager.Generate(&domain.Operator{ID: "op-2", Role: domain.RoleViewer})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	for _, header := range []string{"", "Bearer garbage", "Bearer " + token} {
		var found bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, found = GetOperatorFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		OptionalAuth(manager)(next).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("header %q: expected request to pass, got %d", header, rr.Code)
		}
		if want := header == "Bearer "+token; found != want {
			t.Fatalf("header %q: operator present = %v, want %v", header, found, want)
		}
	}
}
