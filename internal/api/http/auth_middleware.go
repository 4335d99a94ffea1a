package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const operatorHeader = "X-Operator-Id"

// requireAdmin admits requests whose bearer token matches the configured
// bcrypt hash. An optional X-Operator-Id header names the acting operator.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.adminTokenHash) == 0 {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "admin access is not configured")
			return
		}
		token := extractToken(r)
		if token == "" || bcrypt.CompareHashAndPassword(s.adminTokenHash, []byte(token)) != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin token")
			return
		}

		ctx := r.Context()
		if raw := r.Header.Get(operatorHeader); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid "+operatorHeader)
				return
			}
			ctx = withOperator(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}
