// Package lead реализует сбор контактов из публичных форм аудита.
package lead

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Repository описывает операции хранилища, необходимые сервису лидов.
type Repository interface {
	UpsertLead(ctx context.Context, lead models.Lead) (int, error)
	ListLeads(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error)
}

// Service — сервис сбора лидов.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// New создаёт сервис лидов.
func New(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Capture сохраняет контакт из формы. Повторная отправка того же email
// обновляет существующий лид, а не создаёт новый.
func (s *Service) Capture(ctx context.Context, req models.DummyLead) (int, error) {
	const op = "lead.Capture"

	lead := models.Lead{
		Email:           req.Email,
		Source:          req.Source,
		AuditID:         req.AuditID,
		Status:          "new",
		ConversionScore: conversionScore(req),
		Metadata:        req.Metadata,
	}
	id, err := s.repo.UpsertLead(ctx, lead)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("lead captured", slog.Int("lead_id", id), slog.String("source", req.Source))
	return id, nil
}

// List возвращает лиды с фильтром по статусу для админского интерфейса.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error) {
	const op = "lead.List"

	leads, err := s.repo.ListLeads(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return leads, nil
}

// conversionScore грубо оценивает качество лида: контакт, оставленный
// после просмотра результатов аудита, теплее, чем с посадочной страницы.
func conversionScore(req models.DummyLead) int {
	score := 10
	if req.AuditID != nil {
		score += 40
	}
	if len(req.Metadata) > 0 {
		score += 10
	}
	return score
}
