// Package submit реализует HTTP-обработчик для запуска нового аудита.
//
// Handler принимает JSON-запрос с адресом страницы, валидирует его,
// извлекает UID пользователя из контекста, вызывает оркестратор аудитов
// и возвращает ID созданного аудита в JSON-формате.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package submit

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
	"github.com/seoaudit-pro/audit-engine/internal/lib/urlx"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	auditservice "github.com/seoaudit-pro/audit-engine/internal/services/audit"
	"github.com/seoaudit-pro/audit-engine/internal/services/quota"
)

// Handler управляет HTTP-запросами на запуск аудитов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики для запуска аудита
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики запуска аудита.
type Service interface {
	Submit(ctx context.Context, userUID string, req models.DummySubmit) (*models.Audit, error)
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
// @Summary Запустить аудит
// @Description Запускает аудит указанного URL. Возвращает ID созданного аудита.
// @Tags Audits
// @Accept  json
// @Produce  json
// @Param request body models.DummySubmit true "Данные нового аудита"
// @Success 200 {object} map[string]any "Аудит принят в работу"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или URL"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Аудит этого URL уже выполняется"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Исчерпана месячная квота"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при запуске аудита"
// @Router /audits [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.audit.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubmit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

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

	audit, err := h.service.Submit(r.Context(), userUID, req)
	switch {
	case errors.Is(err, urlx.ErrInvalidURL):
		log.Error("invalid audit url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid url"))
		return
	case errors.Is(err, auditservice.ErrDuplicateInFlight):
		log.Warn("duplicate in-flight audit", slog.String("url", req.URL))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("audit for this url is already in flight"))
		return
	case errors.Is(err, quota.ErrQuotaExceeded):
		log.Warn("audit quota exceeded", slog.String("user_uid", userUID))
		w.WriteHeader(http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("monthly audit quota exceeded"))
		return
	case errors.Is(err, auditservice.ErrMaintenance):
		log.Warn("maintenance mode is on")
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("service is under maintenance"))
		return
	case err != nil:
		log.Error("failed to submit audit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not submit audit"))
		return
	}

	log.Info("audit accepted", slog.Int("audit_id", audit.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"audit_id": audit.ID,
		"url":      audit.URL,
		"status":   audit.Status,
	}))
}
