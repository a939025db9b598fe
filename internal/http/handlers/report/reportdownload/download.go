// Package reportdownload реализует HTTP-обработчик выдачи файла отчёта.
//
// Handler проверяет доступность отчёта, учитывает скачивание и отдаёт
// файл из общего хранилища отчётов.
package reportdownload

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
	reportservice "github.com/seoaudit-pro/audit-engine/internal/services/report"
)

// Handler обрабатывает запросы на скачивание отчётов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выдачи отчёта.
type Service interface {
	Download(ctx context.Context, id int, userUID string) (*models.Report, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Скачать отчёт
// @Description Отдаёт файл отчёта, если срок его хранения не истёк.
// @Tags Reports
// @Produce  octet-stream
// @Param id path int true "ID отчёта"
// @Success 200 {file} file "Файл отчёта"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Отчёт не найден"
// @Failure 410 {object} response.ErrorResponse "Срок хранения отчёта истёк"
// @Router /reports/{id}/download [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.download"

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

	report, err := h.service.Download(r.Context(), id, userUID)
	switch {
	case errors.Is(err, reportservice.ErrReportNotFound):
		log.Warn("report not found", slog.Int("report_id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("report not found"))
		return
	case errors.Is(err, reportservice.ErrReportExpired):
		log.Warn("report expired", slog.Int("report_id", id))
		w.WriteHeader(http.StatusGone)
		render.JSON(w, r, response.Error("report has expired"))
		return
	case err != nil:
		log.Error("failed to download report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not download report"))
		return
	}

	log.Info("report download", slog.Int("report_id", report.ID))
	http.ServeFile(w, r, report.FilePath)
}
