// Package audit реализует оркестрацию жизненного цикла аудита:
// приём запроса, учёт квоты, запрет повторного аудита того же URL,
// параллельный запуск проверок, агрегацию и фиксацию итога.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/checkprovider"
	"github.com/seoaudit-pro/audit-engine/internal/lib/rabbitmq"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/lib/urlx"
	"github.com/seoaudit-pro/audit-engine/internal/metrics"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	"github.com/seoaudit-pro/audit-engine/internal/services/aggregator"
	"github.com/seoaudit-pro/audit-engine/internal/services/checkrunner"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
)

// Ошибки сервиса аудитов.
var (
	// ErrDuplicateInFlight — для этого URL уже выполняется аудит.
	ErrDuplicateInFlight = errors.New("audit for this url is already in flight")
	// ErrMaintenance — движок в режиме обслуживания и не принимает аудиты.
	ErrMaintenance = errors.New("audit engine is in maintenance mode")
	// ErrAuditNotFound — аудит не существует или недоступен пользователю.
	ErrAuditNotFound = errors.New("audit not found")
)

const (
	cacheTTL = 10 * time.Minute
	// finalizeTimeout — собственный дедлайн операций фиксации итога:
	// общий дедлайн аудита к этому моменту может быть исчерпан.
	finalizeTimeout = 10 * time.Second
)

// Repository описывает операции хранилища, необходимые оркестратору.
type Repository interface {
	CreateAudit(ctx context.Context, audit models.Audit) (int, error)
	MarkAuditRunning(ctx context.Context, id int, startedAt time.Time) (bool, error)
	FinalizeAudit(ctx context.Context, id int, status models.AuditStatus,
		overallScore *int, errorMessage *string, completedAt time.Time) (bool, error)
	ReadAudit(ctx context.Context, id int) (*models.Audit, error)
	FindInFlightAuditByURL(ctx context.Context, url string) (int, error)
	ListAuditsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Audit, error)
	CreateAuditDetails(ctx context.Context, auditID int, details []models.AuditDetail) error
	ListAuditDetails(ctx context.Context, auditID int) ([]models.AuditDetail, error)
	UpsertWebsite(ctx context.Context, domain string) (int, error)
	ApplyCompletedScore(ctx context.Context, websiteID int, score int, completedAt time.Time) error
	CreateSeoMetrics(ctx context.Context, auditID int, m models.SeoMetrics) error
	CreatePerformanceMetrics(ctx context.Context, auditID int, m models.PerformanceMetrics) error
	CreateSecurityScan(ctx context.Context, auditID int, m models.SecurityScan) error
	UpsertSocialProfiles(ctx context.Context, websiteID int, profiles []models.SocialProfile) error
}

// Quota описывает учёт месячной квоты аудитов.
type Quota interface {
	TryReserve(ctx context.Context, userUID string) error
	Release(ctx context.Context, userUID string)
}

// Runner описывает параллельный запуск проверок категорий.
type Runner interface {
	RunAll(ctx context.Context, target string, categories []models.Category, checkTimeout time.Duration) []checkrunner.Outcome
}

// Prober описывает предварительную проверку доступности страницы.
type Prober interface {
	FetchPage(ctx context.Context, target string) error
}

// Cacher описывает кеш сводок завершённых аудитов.
type Cacher interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Publisher описывает публикацию доменных событий в брокер.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// CompletedEvent публикуется в обменник audits с ключом completed
// при переходе аудита в любое конечное состояние.
type CompletedEvent struct {
	AuditID      int                `json:"audit_id"`
	UserUID      string             `json:"user_uid"`
	URL          string             `json:"url"`
	Status       models.AuditStatus `json:"status"`
	OverallScore *int               `json:"overall_score,omitempty"`
	CompletedAt  time.Time          `json:"completed_at"`
}

// Service — оркестратор аудитов.
type Service struct {
	repo      Repository
	quota     Quota
	runner    Runner
	prober    Prober
	cache     Cacher
	settings  *settings.Provider
	publisher Publisher
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// New создаёт оркестратор аудитов.
func New(repo Repository, quota Quota, runner Runner, prober Prober, cache Cacher,
	settingsProvider *settings.Provider, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		quota:     quota,
		runner:    runner,
		prober:    prober,
		cache:     cache,
		settings:  settingsProvider,
		publisher: publisher,
		logger:    logger,
		inflight:  make(map[string]struct{}),
	}
}

// Submit принимает запрос на аудит: нормализует URL, резервирует квоту,
// создаёт запись в состоянии pending и запускает выполнение в фоне.
// Для URL с незавершённым аудитом возвращает ErrDuplicateInFlight.
func (s *Service) Submit(ctx context.Context, userUID string, req models.DummySubmit) (*models.Audit, error) {
	const op = "audit.Submit"

	if s.settings.Current().MaintenanceMode {
		return nil, fmt.Errorf("%s: %w", op, ErrMaintenance)
	}

	normalized, err := urlx.Normalize(req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	categories, auditType, err := s.resolveCategories(req.AuditType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.acquireURL(ctx, normalized); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.quota.TryReserve(ctx, userUID); err != nil {
		s.releaseURL(normalized)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	websiteID, err := s.repo.UpsertWebsite(ctx, urlx.Domain(normalized))
	if err != nil {
		s.quota.Release(ctx, userUID)
		s.releaseURL(normalized)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	audit := models.Audit{
		UserUID:   userUID,
		WebsiteID: websiteID,
		URL:       normalized,
		AuditType: auditType,
		Status:    models.StatusPending,
		IsPublic:  req.IsPublic,
	}
	audit.ID, err = s.repo.CreateAudit(ctx, audit)
	if err != nil {
		s.quota.Release(ctx, userUID)
		s.releaseURL(normalized)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.AuditsStarted.Inc()
	s.logger.Info("audit accepted",
		slog.Int("audit_id", audit.ID),
		slog.String("url", normalized),
		slog.String("user_uid", userUID))

	s.wg.Add(1)
	go s.execute(audit, categories)

	return &audit, nil
}

// Wait блокируется до завершения всех запущенных аудитов.
// Используется при остановке приложения.
func (s *Service) Wait() {
	s.wg.Wait()
}

// acquireURL занимает URL до завершения аудита. Карта в памяти отсекает
// дубликаты внутри процесса, запрос к базе — между перезапусками и репликами.
func (s *Service) acquireURL(ctx context.Context, normalized string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[normalized]; busy {
		return ErrDuplicateInFlight
	}
	id, err := s.repo.FindInFlightAuditByURL(ctx, normalized)
	if err != nil {
		return err
	}
	if id != 0 {
		return ErrDuplicateInFlight
	}
	s.inflight[normalized] = struct{}{}
	return nil
}

func (s *Service) releaseURL(normalized string) {
	s.mu.Lock()
	delete(s.inflight, normalized)
	s.mu.Unlock()
}

// resolveCategories разбирает audit_type запроса. Пустое значение и "full"
// означают набор категорий по умолчанию из настроек.
func (s *Service) resolveCategories(auditType string) ([]models.Category, string, error) {
	auditType = strings.TrimSpace(strings.ToLower(auditType))
	if auditType == "" || auditType == "full" {
		return s.settings.Current().DefaultAuditChecks, "full", nil
	}

	var categories []models.Category
	for _, part := range strings.Split(auditType, ",") {
		category := models.Category(strings.TrimSpace(part))
		switch category {
		case models.CategorySeo, models.CategoryPerformance, models.CategorySecurity, models.CategorySocial:
			categories = append(categories, category)
		default:
			return nil, "", fmt.Errorf("unknown audit category %q: %w", part, urlx.ErrInvalidURL)
		}
	}
	return categories, auditType, nil
}

// execute ведёт аудит от pending до конечного состояния. Выполняется в
// отдельной горутине с собственным контекстом: общий дедлайн аудита
// не зависит от времени жизни HTTP-запроса.
func (s *Service) execute(audit models.Audit, categories []models.Category) {
	defer s.wg.Done()
	defer s.releaseURL(audit.URL)

	snap := s.settings.Current()
	ctx, cancel := context.WithTimeout(context.Background(), snap.AuditTimeout)
	defer cancel()

	log := s.logger.With(slog.Int("audit_id", audit.ID), slog.String("url", audit.URL))

	ok, err := s.repo.MarkAuditRunning(ctx, audit.ID, time.Now())
	if err != nil {
		if ctx.Err() != nil {
			s.timeout(audit, nil, nil, snap)
			return
		}
		log.Error("failed to mark audit running", sl.Err(err))
		s.fail(audit, "internal error", true)
		return
	}
	if !ok {
		log.Warn("audit is no longer pending, skipping execution")
		return
	}

	if err := s.prober.FetchPage(ctx, audit.URL); err != nil {
		if errors.Is(err, checkprovider.ErrUnreachable) {
			log.Info("target unreachable, audit failed")
			s.fail(audit, "target unreachable", true)
			return
		}
		if ctx.Err() != nil {
			s.timeout(audit, nil, nil, snap)
			return
		}
		log.Error("reachability probe failed", sl.Err(err))
		s.fail(audit, "reachability probe failed", true)
		return
	}

	outcomes := s.runner.RunAll(ctx, audit.URL, categories, snap.CheckTimeout)

	results := make(map[models.Category]*models.CheckResult)
	var degraded []models.AuditDetail
	for _, outcome := range outcomes {
		if outcome.Settled() {
			results[outcome.Category] = outcome.Result
			continue
		}
		if outcome.Detail != nil {
			degraded = append(degraded, *outcome.Detail)
		}
	}

	if ctx.Err() != nil {
		s.timeout(audit, results, degraded, snap)
		return
	}
	if len(results) == 0 {
		log.Warn("no category produced a result")
		s.fail(audit, "all checks failed", true)
		return
	}

	score, details := aggregator.Aggregate(results, snap.CategoryWeights)
	details = append(details, degraded...)

	if err := s.persistResults(ctx, audit, results, details); err != nil {
		if ctx.Err() != nil {
			s.timeout(audit, results, degraded, snap)
			return
		}
		log.Error("failed to persist audit results", sl.Err(err))
		s.fail(audit, "failed to persist results", true)
		return
	}

	// Результаты сохранены: фиксация итога не должна сорваться из-за
	// истечения общего дедлайна между записью и финализацией.
	finCtx, finCancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer finCancel()

	completedAt := time.Now()
	if err := s.repo.ApplyCompletedScore(finCtx, audit.WebsiteID, score, completedAt); err != nil {
		log.Error("failed to update website statistics", sl.Err(err))
	}

	s.finalize(finCtx, audit, models.StatusCompleted, &score, nil, completedAt)
	log.Info("audit completed", slog.Int("overall_score", score))
}

// timeout фиксирует истечение общего дедлайна аудита. Итоговый балл
// не записывается; частичный балл по успевшим категориям попадает
// в сообщение об ошибке. Квота при таймауте не возвращается.
func (s *Service) timeout(audit models.Audit, results map[models.Category]*models.CheckResult,
	degraded []models.AuditDetail, snap *settings.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	message := "audit timed out"
	if len(results) > 0 {
		partial, details := aggregator.Aggregate(results, snap.CategoryWeights)
		details = append(details, degraded...)
		if err := s.repo.CreateAuditDetails(ctx, audit.ID, details); err != nil {
			s.logger.Error("failed to persist partial audit details", sl.Err(err),
				slog.Int("audit_id", audit.ID))
		}
		message = fmt.Sprintf("audit timed out; partial score %d/100 from %d categories",
			partial, len(results))
	}

	s.finalize(ctx, audit, models.StatusTimedOut, nil, &message, time.Now())
	s.logger.Warn("audit timed out", slog.Int("audit_id", audit.ID), slog.String("url", audit.URL))
}

// fail переводит аудит в состояние failed и при releaseQuota возвращает
// зарезервированную единицу квоты пользователю. Как и timeout, работает
// в собственном контексте, не зависящем от дедлайна аудита.
func (s *Service) fail(audit models.Audit, message string, releaseQuota bool) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	s.finalize(ctx, audit, models.StatusFailed, nil, &message, time.Now())
	if releaseQuota {
		s.quota.Release(ctx, audit.UserUID)
	}
}

func (s *Service) finalize(ctx context.Context, audit models.Audit, status models.AuditStatus,
	score *int, message *string, completedAt time.Time) {
	ok, err := s.repo.FinalizeAudit(ctx, audit.ID, status, score, message, completedAt)
	if err != nil {
		s.logger.Error("failed to finalize audit", sl.Err(err), slog.Int("audit_id", audit.ID))
		return
	}
	if !ok {
		s.logger.Warn("audit already finalized", slog.Int("audit_id", audit.ID))
		return
	}

	metrics.AuditsFinished.WithLabelValues(string(status)).Inc()

	if err := s.cache.Invalidate(cacheKey(audit.ID)); err != nil {
		s.logger.Error("failed to invalidate audit cache", sl.Err(err), slog.Int("audit_id", audit.ID))
	}

	event := CompletedEvent{
		AuditID:      audit.ID,
		UserUID:      audit.UserUID,
		URL:          audit.URL,
		Status:       status,
		OverallScore: score,
		CompletedAt:  completedAt,
	}
	if err := s.publisher.Publish(rabbitmq.AuditsExchange, "completed", event); err != nil {
		s.logger.Error("failed to publish audit completed event", sl.Err(err),
			slog.Int("audit_id", audit.ID))
	}
}

// persistResults сохраняет детали проверок и структурированные показатели.
func (s *Service) persistResults(ctx context.Context, audit models.Audit,
	results map[models.Category]*models.CheckResult, details []models.AuditDetail) error {
	if err := s.repo.CreateAuditDetails(ctx, audit.ID, details); err != nil {
		return err
	}
	for _, result := range results {
		if result.Seo != nil {
			if err := s.repo.CreateSeoMetrics(ctx, audit.ID, *result.Seo); err != nil {
				return err
			}
		}
		if result.Performance != nil {
			if err := s.repo.CreatePerformanceMetrics(ctx, audit.ID, *result.Performance); err != nil {
				return err
			}
		}
		if result.Security != nil {
			if err := s.repo.CreateSecurityScan(ctx, audit.ID, *result.Security); err != nil {
				return err
			}
		}
		if len(result.Profiles) > 0 {
			if err := s.repo.UpsertSocialProfiles(ctx, audit.WebsiteID, result.Profiles); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get возвращает сводку аудита с деталями проверок. Чужие непубличные
// аудиты недоступны. Сводки конечных состояний кешируются.
func (s *Service) Get(ctx context.Context, id int, userUID string) (*models.AuditSummary, error) {
	const op = "audit.Get"

	var cached models.AuditSummary
	found, err := s.cache.Get(cacheKey(id), &cached)
	if err != nil {
		s.logger.Error("failed to read audit cache", sl.Err(err), slog.Int("audit_id", id))
	}
	if found {
		return &cached, nil
	}

	audit, err := s.repo.ReadAudit(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAuditNotFound)
	}
	if !audit.IsPublic && audit.UserUID != userUID {
		return nil, fmt.Errorf("%s: %w", op, ErrAuditNotFound)
	}

	details, err := s.repo.ListAuditDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summary := &models.AuditSummary{
		ID:           audit.ID,
		URL:          audit.URL,
		AuditType:    audit.AuditType,
		Status:       audit.Status,
		OverallScore: audit.OverallScore,
		ErrorMessage: audit.ErrorMessage,
		StartedAt:    audit.StartedAt,
		CompletedAt:  audit.CompletedAt,
		Details:      details,
	}
	if audit.Status == models.StatusTimedOut {
		summary.PartialScore = partialScore(details, s.settings.Current().CategoryWeights)
	}

	if audit.Status.IsTerminal() {
		if err := s.cache.Set(cacheKey(id), summary, cacheTTL); err != nil {
			s.logger.Error("failed to cache audit summary", sl.Err(err), slog.Int("audit_id", id))
		}
	}
	return summary, nil
}

// List возвращает историю аудитов пользователя с пагинацией.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Audit, error) {
	const op = "audit.List"

	audits, err := s.repo.ListAuditsByUser(ctx, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return audits, nil
}

// partialScore восстанавливает частичный балл аудита по сохранённым деталям:
// суммы по категориям сводятся так же, как при обычной агрегации.
func partialScore(details []models.AuditDetail, weights map[models.Category]float64) *int {
	results := make(map[models.Category]*models.CheckResult)
	for _, d := range details {
		if d.MaxScore == 0 {
			continue
		}
		result, ok := results[d.Category]
		if !ok {
			result = &models.CheckResult{Category: d.Category}
			results[d.Category] = result
		}
		result.Score += d.Score
		result.MaxScore += d.MaxScore
	}
	if len(results) == 0 {
		return nil
	}
	score, _ := aggregator.Aggregate(results, weights)
	return &score
}

func cacheKey(id int) string {
	return fmt.Sprintf("audit:%d", id)
}
