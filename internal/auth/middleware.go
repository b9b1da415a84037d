package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/abdulahadd002/cheezy-heaven/internal/models"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// ClaimsFromContext returns the verified claims for the request, or nil
// for anonymous requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	// WebSocket clients cannot set headers from the browser.
	return r.URL.Query().Get("token")
}

// Optional attaches claims to the context when a valid token is present
// but lets anonymous requests through. Guest checkout depends on this.
func (t *Tokens) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if claims, err := t.Parse(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a valid token.
func (t *Tokens) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := t.Parse(bearerToken(r))
		if err != nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireAdmin rejects requests unless the token carries the admin role.
// This guard is enforced, not advisory: every admin mutation and status
// transition goes through it.
func (t *Tokens) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := t.Parse(bearerToken(r))
		if err != nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		if claims.Role != models.RoleAdmin {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}
