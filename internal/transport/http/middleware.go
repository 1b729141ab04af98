package httptransport

import (
	"net/http"
	"strings"

	"vouch/internal/jwttoken"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
)

// adminAuth requires a valid bearer token on every request in the group.
func adminAuth(tokens *jwttoken.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			if _, err := tokens.Validate(raw); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
