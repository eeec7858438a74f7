package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"sigil/pkg/domain"
	"sigil/pkg/requestcontext"
)

// TokenValidator validates a bearer token and yields the caller it was issued
// to. Implemented by internal/jwttoken.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.Address, error)
}

// RequireAuth authenticates the caller from the Authorization header and
// injects the caller address into the request context. Whether that caller is
// the current administrator is decided per operation by the service layer,
// because the administrator identity is transferable at runtime.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			caller, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w)
				return
			}
			ctx := requestcontext.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
