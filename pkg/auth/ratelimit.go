package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rhuss/citygate/pkg/api"
	"github.com/rhuss/citygate/pkg/observability"
	"github.com/rhuss/citygate/pkg/transport"
)

// ErrTooManyRequests is returned by a RateLimiter when the caller is over
// its budget.
var ErrTooManyRequests = errors.New("rate limit exceeded")

// RateLimiter checks whether an authenticated caller may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, ac AccessContext) error
}

// limiterIdleTTL is how long a subject's bucket survives without traffic.
// Buckets refill completely within a minute, so dropping an idle one never
// grants a caller more than it already had.
const limiterIdleTTL = 5 * time.Minute

// RoleLimiter is a token-bucket limiter keyed by subject, with the rate
// chosen by the caller's role. Buckets idle for longer than limiterIdleTTL
// are evicted, so memory follows the number of recently active subjects.
type RoleLimiter struct {
	perRole    map[Role]int
	defaultRPM int
	now        func() time.Time

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRoleLimiter creates a limiter. perRole gives requests per minute for
// specific roles; other roles use defaultRPM. A rate <= 0 means unlimited.
func NewRoleLimiter(perRole map[Role]int, defaultRPM int) *RoleLimiter {
	return &RoleLimiter{
		perRole:    perRole,
		defaultRPM: defaultRPM,
		now:        time.Now,
		limiters:   make(map[string]*limiterEntry),
	}
}

// Allow consumes one token for the caller.
func (l *RoleLimiter) Allow(_ context.Context, ac AccessContext) error {
	rpm := l.defaultRPM
	if v, ok := l.perRole[ac.Role()]; ok {
		rpm = v
	}
	if rpm <= 0 {
		return nil // no limit
	}

	key := ac.Subject() + ":" + ac.Role().String()

	l.mu.Lock()
	now := l.now()
	l.sweepLocked(now)
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	if !e.lim.AllowN(now, 1) {
		return ErrTooManyRequests
	}
	return nil
}

// sweepLocked drops idle buckets, at most once per limiterIdleTTL.
// The caller must hold l.mu.
func (l *RoleLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdleTTL {
		return
	}
	l.lastSweep = now
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
}

// RateLimit returns middleware applying limiter to authenticated requests.
// Requests without an access context pass through untouched.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := AccessFromContext(r.Context()).Get()
			if ok {
				if err := limiter.Allow(r.Context(), ac); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", ac.Subject(),
						"role", ac.Role().String(),
					)
					observability.RateLimitRejectedTotal.WithLabelValues(ac.Role().String()).Inc()
					transport.WriteAPIError(w, api.NewTooManyRequestsError("rate limit exceeded"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
