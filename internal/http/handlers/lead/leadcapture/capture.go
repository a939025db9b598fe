// Package leadcapture реализует HTTP-обработчик формы захвата лида.
// Конечная точка открытая: форму заполняют неавторизованные посетители
// публичных результатов аудита.
package leadcapture

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Handler управляет HTTP-запросами формы захвата лида.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики захвата лида.
type Service interface {
	Capture(ctx context.Context, req models.DummyLead) (int, error)
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
// @Summary Оставить контакт
// @Description Сохраняет контакт посетителя публичной формы аудита.
// @Tags Leads
// @Accept  json
// @Produce  json
// @Param request body models.DummyLead true "Данные формы"
// @Success 200 {object} map[string]any "Контакт сохранён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leads [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.capture"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyLead
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

	id, err := h.service.Capture(r.Context(), req)
	if err != nil {
		log.Error("failed to capture lead", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not capture lead"))
		return
	}

	log.Info("lead captured", slog.Int("lead_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"lead_id": id,
	}))
}
