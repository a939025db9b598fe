// Package websitelist реализует HTTP-обработчик для получения каталога сайтов.
package websitelist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

const defaultLimit = 20

// Handler обрабатывает запросы на получение каталога сайтов.
type Handler struct {
	log     *slog.Logger
	storage Storage
}

// Storage описывает чтение списка сайтов из хранилища.
type Storage interface {
	ListWebsites(ctx context.Context, limit, offset int) ([]*models.Website, error)
}

// New создает новый Handler с переданным логгером и хранилищем.
func New(log *slog.Logger, storage Storage) *Handler {
	return &Handler{log: log, storage: storage}
}

// ServeHTTP godoc
// @Summary Каталог сайтов
// @Description Возвращает сайты с пагинацией, недавно проанализированные первыми.
// @Tags Websites
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список сайтов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /websites [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.website.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	websites, err := h.storage.ListWebsites(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list websites", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list websites"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"websites": websites,
		"count":    len(websites),
	}))
}
