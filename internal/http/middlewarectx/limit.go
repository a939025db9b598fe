package middlewarectx

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/seoaudit-pro/audit-engine/internal/http/response"
)

const (
	requestsPerSecond = 10
	requestBurst      = 30
)

// clientLimiters хранит отдельный ограничитель частоты для каждого клиента.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[key]
	if !ok {
		l = rate.NewLimiter(requestsPerSecond, requestBurst)
		c.limiters[key] = l
	}
	return l
}

// RateLimitMiddleware ограничивает частоту запросов отдельно для каждого
// пользователя. Ключом служит UID из контекста запроса; для запросов
// без аутентификации — адрес клиента.
func RateLimitMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	limiters := &clientLimiters{limiters: make(map[string]*rate.Limiter)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _ := r.Context().Value(UserUID).(string)
			if key == "" {
				key = r.RemoteAddr
			}
			if !limiters.get(key).Allow() {
				log.Warn("too many requests", slog.String("client", key))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
