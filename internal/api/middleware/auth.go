package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eshaffer321/subtrack/internal/api/dto"
	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores the
// caller identity in the request context.
func Auth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if verifier == nil || header == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "invalid authorization header")
				return
			}

			userID, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(r.Context(), "auth: rejected token", "path", r.URL.Path, "error", err)
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := recurring.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="subtrack"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(dto.Failure(dto.NewAPIError(dto.ErrCodeNotAuthenticated, message)))
}
