// Package report управляет формированием и выдачей файлов отчётов.
// Отчёт можно сформировать только по завершённому аудиту; срок его
// доступности определяется настройкой report_retention_days.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/metrics"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
)

// Ошибки сервиса отчётов.
var (
	// ErrAuditNotCompleted — отчёт запрошен по незавершённому аудиту.
	ErrAuditNotCompleted = errors.New("audit is not completed")
	// ErrReportNotFound — отчёт не существует или недоступен пользователю.
	ErrReportNotFound = errors.New("report not found")
	// ErrReportExpired — срок хранения отчёта истёк.
	ErrReportExpired = errors.New("report has expired")
)

// Repository описывает операции хранилища, необходимые сервису отчётов.
type Repository interface {
	ReadAudit(ctx context.Context, id int) (*models.Audit, error)
	CreateReport(ctx context.Context, report models.Report) (int, error)
	ReadReport(ctx context.Context, id int) (*models.Report, error)
	ListReportsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Report, error)
	IncrementDownloadCount(ctx context.Context, id int) error
}

// Renderer описывает генерацию файла отчёта.
type Renderer interface {
	RenderReport(ctx context.Context, auditID int, reportType, fileName string) (string, int, error)
}

// Service — сервис формирования и выдачи отчётов.
type Service struct {
	repo     Repository
	renderer Renderer
	settings *settings.Provider
	logger   *slog.Logger
}

// New создаёт сервис отчётов.
func New(repo Repository, renderer Renderer, settingsProvider *settings.Provider, logger *slog.Logger) *Service {
	return &Service{repo: repo, renderer: renderer, settings: settingsProvider, logger: logger}
}

// Materialize формирует файл отчёта по завершённому аудиту
// и регистрирует его со сроком хранения из настроек.
func (s *Service) Materialize(ctx context.Context, userUID string, req models.DummyReport) (*models.Report, error) {
	const op = "report.Materialize"

	audit, err := s.repo.ReadAudit(ctx, req.AuditID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrReportNotFound)
	}
	if audit.UserUID != userUID && !audit.IsPublic {
		return nil, fmt.Errorf("%s: %w", op, ErrReportNotFound)
	}
	if audit.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%s: %w", op, ErrAuditNotCompleted)
	}

	reportType := req.ReportType
	if reportType == "" {
		reportType = "pdf"
	}
	fileName := fmt.Sprintf("audit-%d-%s.%s", audit.ID, uuid.NewString(), reportType)

	filePath, sizeKB, err := s.renderer.RenderReport(ctx, audit.ID, reportType, fileName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	retention := s.settings.Current().ReportRetentionDays
	report := models.Report{
		AuditID:    audit.ID,
		UserUID:    userUID,
		ReportType: reportType,
		FilePath:   filePath,
		FileSizeKB: sizeKB,
		IsPublic:   audit.IsPublic,
		ExpiresAt:  time.Now().AddDate(0, 0, retention),
		CreatedAt:  time.Now(),
	}
	report.ID, err = s.repo.CreateReport(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReportsMaterialized.Inc()
	s.logger.Info("report materialized",
		slog.Int("report_id", report.ID),
		slog.Int("audit_id", audit.ID),
		slog.String("report_type", reportType))
	return &report, nil
}

// Download возвращает отчёт для скачивания и учитывает скачивание.
// Истёкшие отчёты недоступны независимо от наличия файла.
func (s *Service) Download(ctx context.Context, id int, userUID string) (*models.Report, error) {
	const op = "report.Download"

	report, err := s.repo.ReadReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrReportNotFound)
	}
	if report.UserUID != userUID && !report.IsPublic {
		return nil, fmt.Errorf("%s: %w", op, ErrReportNotFound)
	}
	if !report.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrReportExpired)
	}

	if err := s.repo.IncrementDownloadCount(ctx, id); err != nil {
		s.logger.Error("failed to increment download count", sl.Err(err), slog.Int("report_id", id))
	}
	return report, nil
}

// List возвращает отчёты пользователя с пагинацией.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Report, error) {
	const op = "report.List"

	reports, err := s.repo.ListReportsByUser(ctx, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reports, nil
}
