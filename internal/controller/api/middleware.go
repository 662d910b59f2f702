package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// accessLog пишет запрос в лог и в метрики
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		h.metrics.HTTPRequest(r.Method, route, status, elapsed)
		h.logger.Info("http.request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// limiterIdleTTL через сколько простоя лимитер вызывающего удаляется
const limiterIdleTTL = 10 * time.Minute

type actorEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// actorLimiter ограничивает частоту запросов одного вызывающего
type actorLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	entries   map[string]*actorEntry
}

func newActorLimiter(rps float64, burst int) *actorLimiter {
	if burst < 1 {
		burst = 1
	}
	ttl := limiterIdleTTL
	// Удаляем только лимитеры, которые успели бы полностью восстановиться
	if refill := time.Duration(float64(burst) / rps * float64(time.Second)); rps > 0 && refill > ttl {
		ttl = refill
	}
	return &actorLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: ttl,
		now:     time.Now,
		entries: make(map[string]*actorEntry),
	}
}

func (l *actorLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	e, ok := l.entries[key]
	if !ok {
		e = &actorEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweep удаляет простаивающие лимитеры, вызывается под mu
func (l *actorLimiter) sweep(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) >= l.idleTTL {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}

// rateLimited пропускает не больше заданной частоты запросов на вызывающего. rps <= 0 выключает ограничение.
func (h *Handler) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r.Context())
		if p != nil && !h.limiter.allow(actorKey(p)) {
			w.Header().Set("Retry-After", "1")
			writeStatus(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next(w, r)
	}
}

func actorKey(p model.Principal) string {
	return string(p.Role()) + ":" + p.PrincipalID().String()
}
