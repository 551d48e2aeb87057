package billingapi

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/centerhub/billing/pkg/tenant"
)

const limiterIdleTTL = 10 * time.Minute

type tenantLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// changeLimiter throttles plan-change requests per tenant with a token bucket.
// Idle buckets are pruned lazily on access.
type changeLimiter struct {
	mu        sync.Mutex
	limiters  map[uuid.UUID]*tenantLimiter
	r         rate.Limit
	b         int
	lastPrune time.Time
	now       func() time.Time
}

func newChangeLimiter(perMinute int) *changeLimiter {
	return &changeLimiter{
		limiters: make(map[uuid.UUID]*tenantLimiter),
		r:        rate.Limit(float64(perMinute) / 60.0),
		b:        perMinute,
		now:      time.Now,
	}
}

func (l *changeLimiter) get(id uuid.UUID) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > limiterIdleTTL/2 {
		for key, tl := range l.limiters {
			if now.Sub(tl.lastSeen) > limiterIdleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastPrune = now
	}

	tl, ok := l.limiters[id]
	if !ok {
		tl = &tenantLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[id] = tl
	}
	tl.lastSeen = now
	return tl.limiter
}

// middleware rejects with 429 and Retry-After once a tenant drains its bucket.
// Requests without a tenant are left to RequireTenant.
func (l *changeLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := tenant.IDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		reservation := l.get(id).Reserve()
		if d := reservation.Delay(); d > 0 {
			reservation.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1)))
			writeJSON(w, http.StatusTooManyRequests, ErrorBody{
				Error:   "rate_limited",
				Message: "too many plan changes, try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
