// Package list реализует HTTP-обработчик для получения истории аудитов пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

const defaultLimit = 20

// Handler обрабатывает запросы на получение истории аудитов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики истории аудитов.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.Audit, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список аудитов пользователя
// @Description Возвращает аудиты текущего пользователя с пагинацией, новые первыми.
// @Tags Audits
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список аудитов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /audits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.audit.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit, offset := pagination(r)
	audits, err := h.service.List(r.Context(), userUID, limit, offset)
	if err != nil {
		log.Error("failed to list audits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list audits"))
		return
	}

	log.Info("success to list audits", slog.Int("count", len(audits)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"audits": audits,
		"count":  len(audits),
	}))
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
