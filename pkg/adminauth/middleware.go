package adminauth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/centerhub/billing/pkg/logger"
)

// Middleware rejects requests without a valid operator bearer token.
// Missing or invalid tokens get 401, tokens without the operator role get 403.
func Middleware(svc *Service, log *slog.Logger) func(http.Handler) http.Handler {
	if svc == nil {
		panic("adminauth: service cannot be nil")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				deny(w, http.StatusUnauthorized, err)
				return
			}

			claims, err := svc.Verify(token)
			if err != nil {
				log.WarnContext(r.Context(), "rejected operator token",
					logger.Component("adminauth"), logger.Error(err))
				status := http.StatusUnauthorized
				if errors.Is(err, ErrForbidden) {
					status = http.StatusForbidden
				}
				deny(w, status, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

func deny(w http.ResponseWriter, status int, err error) {
	code := "unauthorized"
	if status == http.StatusForbidden {
		code = "forbidden"
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": errorMessage(err),
	})
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing bearer token"
	case errors.Is(err, ErrForbidden):
		return "operator role required"
	default:
		return "invalid token"
	}
}
