// Package read реализует HTTP-обработчик для получения сводки аудита по ID.
//
// Handler извлекает ID из URL-параметров, вызывает бизнес-логику для чтения
// аудита и возвращает сводку с деталями проверок в JSON-формате.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	auditservice "github.com/seoaudit-pro/audit-engine/internal/services/audit"
)

// Handler обрабатывает запросы на получение сводки аудита по ID.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики для чтения аудита
}

// Service описывает интерфейс бизнес-логики чтения аудита.
type Service interface {
	Get(ctx context.Context, id int, userUID string) (*models.AuditSummary, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить сводку аудита
// @Description Возвращает состояние аудита, итоговый балл и детали проверок.
// @Tags Audits
// @Produce  json
// @Param id path int true "ID аудита"
// @Success 200 {object} map[string]any "Сводка аудита"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Аудит не найден"
// @Router /audits/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.audit.read"

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

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	summary, err := h.service.Get(r.Context(), id, userUID)
	if errors.Is(err, auditservice.ErrAuditNotFound) {
		log.Warn("audit not found", slog.Int("audit_id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("audit not found"))
		return
	}
	if err != nil {
		log.Error("failed to read audit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read audit"))
		return
	}

	log.Info("success to read audit", slog.Int("audit_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"audit": summary,
	}))
}
