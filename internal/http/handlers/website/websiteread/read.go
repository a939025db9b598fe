// Package websiteread реализует HTTP-обработчик для получения сайта
// с накопленной статистикой аудитов по его ID.
package websiteread

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Handler обрабатывает запросы на получение сайта по ID.
type Handler struct {
	log     *slog.Logger
	storage Storage
}

// Storage описывает чтение сайта из хранилища.
type Storage interface {
	ReadWebsite(ctx context.Context, id int) (*models.Website, error)
}

// New создает новый Handler с переданным логгером и хранилищем.
func New(log *slog.Logger, storage Storage) *Handler {
	return &Handler{log: log, storage: storage}
}

// ServeHTTP godoc
// @Summary Получить сайт
// @Description Возвращает сайт со скользящим средним баллом и числом аудитов.
// @Tags Websites
// @Produce  json
// @Param id path int true "ID сайта"
// @Success 200 {object} map[string]any "Данные сайта"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Сайт не найден"
// @Router /websites/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.website.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	website, err := h.storage.ReadWebsite(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("website not found", slog.Int("website_id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("website not found"))
		return
	}
	if err != nil {
		log.Error("failed to read website", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read website"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"website": website,
	}))
}
