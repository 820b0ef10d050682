package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atendeai/clinic-platform/internal/tenancy"
)

func TestRequireClinicIDMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/appointments/flow", nil)
	rec := httptest.NewRecorder()

	RequireClinicID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestRequireClinicIDSetsContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/appointments/flow", nil)
	req.Header.Set("X-Clinic-Id", "clinic-1")
	rec := httptest.NewRecorder()

	called := false
	RequireClinicID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
		if !ok || clinicID != "clinic-1" {
			t.Fatalf("expected clinic id in context, got %q ok=%v", clinicID, ok)
		}
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called")
	}
}
