package params

import (
	"net/http"
	"strings"
)

// RequireBearerToken gates every mutating Parameter Store operation behind a
// static admin token. Unauthenticated reads are not offered by this
// component: every route registered under Server is mutation-or-admin-read,
// so the gate applies uniformly rather than per-route.
func RequireBearerToken(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if extractBearer(r.Header.Get("Authorization")) != token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
