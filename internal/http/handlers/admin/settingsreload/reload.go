// Package settingsreload реализует HTTP-обработчик перечитывания
// настроек движка из таблицы system_settings без перезапуска.
package settingsreload

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
)

// Handler обрабатывает запросы на перечитывание настроек.
type Handler struct {
	log      *slog.Logger
	provider *settings.Provider
}

// New создает новый Handler с переданным логгером и поставщиком настроек.
func New(log *slog.Logger, provider *settings.Provider) *Handler {
	return &Handler{log: log, provider: provider}
}

// ServeHTTP godoc
// @Summary Перечитать настройки
// @Description Перечитывает таблицу system_settings и применяет новый снимок настроек. Доступно только администраторам.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Настройки перечитаны"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/settings/reload [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.settingsreload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, _ := r.Context().Value(middlewarectx.Role).(string)
	if role != "admin" {
		log.Warn("forbidden, admin role required", slog.String("role", role))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}

	if err := h.provider.Reload(r.Context()); err != nil {
		log.Error("failed to reload settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reload settings"))
		return
	}

	log.Info("settings reloaded")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"reloaded": true,
	}))
}
