package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
)

// MaintenanceMiddleware возвращает HTTP 503, пока включена настройка
// maintenance_mode. Чтение уже запущенных аудитов остаётся доступным:
// middleware вешается только на маршруты, изменяющие состояние.
func MaintenanceMiddleware(provider *settings.Provider, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provider.Current().MaintenanceMode {
				log.Warn("request rejected, maintenance mode is on")
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("service is under maintenance"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
