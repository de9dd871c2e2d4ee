package middlewarectx

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/response"
)

// codeRateLimited — код ответа при превышении локального лимита.
const codeRateLimited = "RATE_LIMITED"

// minIdleTTL минимальное время простоя, после которого лимитер ключа удаляется.
const minIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов отдельно для каждого пользователя.
// Лимитеры ключей, простаивающих дольше idleTTL, удаляются при очередном обходе,
// поэтому размер карты ограничен числом активных за idleTTL ключей.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter создаёт ограничитель на rps запросов в секунду с запасом burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL(rps, burst),
		now:      time.Now,
	}
}

// idleTTL не меньше времени полного восстановления корзины,
// чтобы удаление лимитера не давало ключу лишних запросов.
func idleTTL(rps float64, burst int) time.Duration {
	if rps <= 0 {
		return minIdleTTL
	}
	refill := time.Duration(float64(burst) / rps * float64(time.Second))
	if refill > minIdleTTL {
		return refill
	}
	return minIdleTTL
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) >= l.idleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware возвращает middleware, отвечающий 429 при превышении лимита.
// Ключ — ID автора запроса, для анонимных запросов — адрес клиента.
func (l *RateLimiter) Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if requester, ok := RequesterFrom(r.Context()); ok {
				key = requester.ID
			}
			if !l.get(key).Allow() {
				log.Warn("too many requests", slog.String("key", key), slog.String("path", r.URL.Path))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests", codeRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
