// Package reportsweeper периодически находит отчёты с истёкшим сроком
// хранения и публикует события report.expired. Файлы удаляет внешний
// сборщик, подписанный на эти события. Дополнительно публикуются
// предупреждения report.expiring по отчётам, срок которых скоро истечёт.
package reportsweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/lib/rabbitmq"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Repository описывает поиск отчётов по сроку хранения.
type Repository interface {
	FindExpiredReports(ctx context.Context, now time.Time) ([]*models.Report, error)
	FindReportsExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]*models.Report, error)
	MarkReportExpiryNotified(ctx context.Context, id int) error
}

// Publisher описывает публикацию событий в брокер.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// ExpiredEvent публикуется в обменник audits с ключом expired
// для каждого отчёта с истёкшим сроком хранения.
type ExpiredEvent struct {
	ReportID  int       `json:"report_id"`
	AuditID   int       `json:"audit_id"`
	FilePath  string    `json:"file_path"`
	ExpiredAt time.Time `json:"expired_at"`
}

// ExpiringEvent публикуется с ключом expiring один раз по каждому отчёту,
// срок хранения которого истекает в ближайшее окно.
type ExpiringEvent struct {
	ReportID  int       `json:"report_id"`
	AuditID   int       `json:"audit_id"`
	UserUID   string    `json:"user_uid,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sweeper — фоновый обходчик отчётов с истекающим сроком хранения.
type Sweeper struct {
	repo       Repository
	publisher  Publisher
	interval   time.Duration
	warnWindow time.Duration
	logger     *slog.Logger
}

// New создаёт обходчик с заданным интервалом между проходами
// и окном предупреждения об истечении срока хранения.
func New(repo Repository, publisher Publisher, interval, warnWindow time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:       repo,
		publisher:  publisher,
		interval:   interval,
		warnWindow: warnWindow,
		logger:     logger,
	}
}

// Run выполняет проходы по расписанию до отмены контекста.
// Первый проход выполняется сразу при запуске.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("report sweeper started",
		slog.Duration("interval", s.interval),
		slog.Duration("warn_window", s.warnWindow))

	if err := s.sweep(ctx); err != nil {
		s.logger.Error("sweep failed", sl.Err(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("report sweeper stopped")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("sweep failed", sl.Err(err))
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	const op = "reportsweeper.sweep"

	now := time.Now()
	if err := s.publishExpired(ctx, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.publishExpiring(ctx, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Sweeper) publishExpired(ctx context.Context, now time.Time) error {
	expired, err := s.repo.FindExpiredReports(ctx, now)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	published := 0
	for _, report := range expired {
		event := ExpiredEvent{
			ReportID:  report.ID,
			AuditID:   report.AuditID,
			FilePath:  report.FilePath,
			ExpiredAt: now,
		}
		if err := s.publisher.Publish(rabbitmq.AuditsExchange, "expired", event); err != nil {
			s.logger.Error("failed to publish report expired event", sl.Err(err),
				slog.Int("report_id", report.ID))
			continue
		}
		published++
	}

	s.logger.Info("expired sweep finished",
		slog.Int("expired", len(expired)),
		slog.Int("published", published))
	return nil
}

func (s *Sweeper) publishExpiring(ctx context.Context, now time.Time) error {
	expiring, err := s.repo.FindReportsExpiringSoon(ctx, now, s.warnWindow)
	if err != nil {
		return err
	}

	for _, report := range expiring {
		event := ExpiringEvent{
			ReportID:  report.ID,
			AuditID:   report.AuditID,
			UserUID:   report.UserUID,
			ExpiresAt: report.ExpiresAt,
		}
		if err := s.publisher.Publish(rabbitmq.AuditsExchange, "expiring", event); err != nil {
			s.logger.Error("failed to publish report expiring event", sl.Err(err),
				slog.Int("report_id", report.ID))
			continue
		}
		if err := s.repo.MarkReportExpiryNotified(ctx, report.ID); err != nil {
			s.logger.Error("failed to mark report expiry notified", sl.Err(err),
				slog.Int("report_id", report.ID))
		}
	}
	return nil
}
