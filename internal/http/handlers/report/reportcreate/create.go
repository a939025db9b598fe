// Package reportcreate реализует HTTP-обработчик для формирования отчёта
// по завершённому аудиту.
package reportcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	reportservice "github.com/seoaudit-pro/audit-engine/internal/services/report"
)

// Handler управляет HTTP-запросами на формирование отчётов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики формирования отчёта.
type Service interface {
	Materialize(ctx context.Context, userUID string, req models.DummyReport) (*models.Report, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сформировать отчёт
// @Description Формирует файл отчёта по завершённому аудиту. Возвращает данные отчёта.
// @Tags Reports
// @Accept  json
// @Produce  json
// @Param request body models.DummyReport true "Параметры отчёта"
// @Success 200 {object} map[string]any "Отчёт сформирован"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Аудит не найден"
// @Failure 409 {object} response.ErrorResponse "Аудит ещё не завершён"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при формировании отчёта"
// @Router /reports [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	report, err := h.service.Materialize(r.Context(), userUID, req)
	switch {
	case errors.Is(err, reportservice.ErrReportNotFound):
		log.Warn("audit not found", slog.Int("audit_id", req.AuditID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("audit not found"))
		return
	case errors.Is(err, reportservice.ErrAuditNotCompleted):
		log.Warn("audit is not completed", slog.Int("audit_id", req.AuditID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("audit is not completed"))
		return
	case err != nil:
		log.Error("failed to materialize report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create report"))
		return
	}

	log.Info("report materialized", slog.Int("report_id", report.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"report": report,
	}))
}
