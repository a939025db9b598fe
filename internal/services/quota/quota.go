// Package quota реализует учёт месячной квоты аудитов пользователя.
// Резервирование выполняется одним атомарным UPDATE в базе,
// поэтому параллельные запросы не могут превысить лимит.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/metrics"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
)

// ErrQuotaExceeded возвращается, когда месячный лимит аудитов исчерпан.
var ErrQuotaExceeded = errors.New("monthly audit quota exceeded")

// Repository описывает операции хранилища, необходимые учёту квот.
type Repository interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	RolloverQuota(ctx context.Context, uid string) error
	ReserveAudit(ctx context.Context, uid string, freeLimit int) (bool, error)
	ReleaseAudit(ctx context.Context, uid string) error
}

// Ledger — сервис учёта квоты аудитов.
type Ledger struct {
	repo     Repository
	settings *settings.Provider
	logger   *slog.Logger
}

// New создаёт новый сервис учёта квоты.
func New(repo Repository, settingsProvider *settings.Provider, logger *slog.Logger) *Ledger {
	return &Ledger{repo: repo, settings: settingsProvider, logger: logger}
}

// TryReserve резервирует одну единицу квоты пользователя.
// Перед резервированием выполняется перенос квоты на новый период,
// если дата сброса уже наступила. Для безлимитных тарифов счётчик
// увеличивается, но лимит не проверяется. Потолок тарифа free берётся
// из настройки max_free_audits_per_month текущего снимка.
func (l *Ledger) TryReserve(ctx context.Context, userUID string) error {
	const op = "quota.TryReserve"

	if err := l.repo.RolloverQuota(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	reserved, err := l.repo.ReserveAudit(ctx, userUID, l.settings.Current().MaxFreeAuditsPerMonth)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !reserved {
		metrics.QuotaDenied.Inc()
		l.logger.Info("audit quota exhausted", slog.String("user_uid", userUID))
		return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
	}
	return nil
}

// Release возвращает одну единицу квоты после сбоя аудита.
// Аудиты, завершившиеся по таймауту, квоту не возвращают:
// работа анализаторов была выполнена хотя бы частично.
func (l *Ledger) Release(ctx context.Context, userUID string) {
	const op = "quota.Release"

	if err := l.repo.ReleaseAudit(ctx, userUID); err != nil {
		l.logger.Error("failed to release audit quota", sl.Err(fmt.Errorf("%s: %w", op, err)),
			slog.String("user_uid", userUID))
	}
}

// Remaining возвращает остаток квоты пользователя в текущем периоде.
// Для безлимитных тарифов возвращается -1.
func (l *Ledger) Remaining(ctx context.Context, userUID string) (int, error) {
	const op = "quota.Remaining"

	user, err := l.repo.GetUser(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsUnlimited() {
		return -1, nil
	}
	rest := user.MonthlyAuditLimit - user.MonthlyAuditsUsed
	if rest < 0 {
		rest = 0
	}
	return rest, nil
}
