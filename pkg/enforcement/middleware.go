package enforcement

import (
	"encoding/json"
	"net/http"

	"github.com/centerhub/billing/pkg/logger"
	"github.com/centerhub/billing/pkg/subscription"
	"github.com/centerhub/billing/pkg/tenant"
)

// QuotaErrorBody is the 402 payload sent when a request is blocked.
type QuotaErrorBody struct {
	Error    string                `json:"error"`
	Message  string                `json:"message"`
	Resource subscription.Resource `json:"resource"`
	Current  int64                 `json:"current"`
	Max      int64                 `json:"max"`
}

// Middleware runs the interceptor for every tenant-scoped request.
// Requests without a tenant in context are not subject to quotas and pass through.
// Blocked requests get 402 Payment Required; failures to decide get 500.
func Middleware(i *Interceptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := tenant.IDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			_, err := i.Check(r.Context(), tenantID, Target{Method: r.Method, Path: r.URL.Path})
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			if q, denied := subscription.IsQuotaExceeded(err); denied {
				writeJSON(w, http.StatusPaymentRequired, QuotaErrorBody{
					Error:    string(ReasonQuotaExceeded),
					Message:  q.Error(),
					Resource: q.Resource,
					Current:  q.Current,
					Max:      q.Limit,
				})
				return
			}

			i.log.ErrorContext(r.Context(), "quota check failed",
				logger.TenantID(tenantID), logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "internal_error",
				"message": http.StatusText(http.StatusInternalServerError),
			})
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
