package middleware

import (
	"net/http"

	"github.com/atendeai/clinic-platform/internal/tenancy"
)

const clinicHeader = "X-Clinic-Id"

// RequireClinicID enforces the multi-tenancy header on API requests and
// places the clinic id on the request context.
func RequireClinicID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clinicID := r.Header.Get(clinicHeader)
		if clinicID == "" {
			http.Error(w, "missing X-Clinic-Id", http.StatusBadRequest)
			return
		}
		ctx := tenancy.WithClinicID(r.Context(), clinicID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
