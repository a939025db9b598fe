// Package checkrunner параллельно выполняет проверки категорий аудита.
// Каждая категория выполняется в своей горутине с собственным потолком
// времени; недоступность анализатора и истечение потолка не прерывают
// аудит, а деградируют до предупреждения в результатах.
package checkrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/checkprovider"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/metrics"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Checker выполняет проверки одной категории.
type Checker interface {
	Category() models.Category
	Run(ctx context.Context, target string) (*models.CheckResult, error)
}

// Outcome — итог выполнения одной категории.
// Ровно одно из полей Result и Detail заполнено: Result при успехе,
// Detail — деталь-предупреждение при таймауте или недоступности анализатора.
type Outcome struct {
	Category models.Category
	Result   *models.CheckResult
	Detail   *models.AuditDetail
	Err      error
}

// Settled сообщает, дала ли категория пригодный для агрегации результат.
func (o Outcome) Settled() bool {
	return o.Result != nil
}

// Runner запускает набор проверок и собирает их итоги.
type Runner struct {
	checkers map[models.Category]Checker
	logger   *slog.Logger
}

// New создаёт Runner над набором исполнителей проверок.
func New(logger *slog.Logger, checkers ...Checker) *Runner {
	byCategory := make(map[models.Category]Checker, len(checkers))
	for _, c := range checkers {
		byCategory[c.Category()] = c
	}
	return &Runner{checkers: byCategory, logger: logger}
}

// RunAll выполняет проверки перечисленных категорий параллельно
// и возвращает итог каждой. Потолок времени одной проверки задаётся
// checkTimeout; общий дедлайн аудита передаётся через ctx.
// Каждая запущенная категория обязательно возвращает итог:
// при истечении ctx проверка завершается ошибкой контекста.
func (r *Runner) RunAll(ctx context.Context, target string, categories []models.Category, checkTimeout time.Duration) []Outcome {
	results := make(chan Outcome, len(categories))
	started := 0
	for _, category := range categories {
		checker, ok := r.checkers[category]
		if !ok {
			r.logger.Warn("no checker registered for category", sl.Category(category))
			continue
		}
		started++
		go func(c Checker) {
			results <- r.runOne(ctx, c, target, checkTimeout)
		}(checker)
	}

	outcomes := make([]Outcome, 0, started)
	for i := 0; i < started; i++ {
		outcomes = append(outcomes, <-results)
	}
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, checker Checker, target string, checkTimeout time.Duration) Outcome {
	const op = "checkrunner.runOne"
	category := checker.Category()

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	result, err := checker.Run(checkCtx, target)
	metrics.CheckDuration.WithLabelValues(string(category)).Observe(time.Since(start).Seconds())

	if err == nil {
		return Outcome{Category: category, Result: result}
	}

	err = fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		r.logger.Warn("category check timed out", sl.Category(category), sl.Err(err))
		return Outcome{
			Category: category,
			Detail:   degradedDetail(category, "check timed out", "Check did not finish in time and was skipped."),
			Err:      err,
		}
	case errors.Is(err, checkprovider.ErrUnavailable):
		metrics.CheckUnavailable.WithLabelValues(string(category)).Inc()
		r.logger.Error("check backend unavailable", sl.Category(category), sl.Err(err))
		return Outcome{
			Category: category,
			Detail:   degradedDetail(category, "check unavailable", "Check backend was unavailable and the category was skipped."),
			Err:      err,
		}
	default:
		r.logger.Error("category check failed", sl.Category(category), sl.Err(err))
		return Outcome{
			Category: category,
			Detail:   degradedDetail(category, "check failed", "Check failed and the category was skipped."),
			Err:      err,
		}
	}
}

// degradedDetail формирует деталь-предупреждение для категории,
// не давшей результата. Такая категория исключается из агрегации.
func degradedDetail(category models.Category, name, message string) *models.AuditDetail {
	return &models.AuditDetail{
		Category:  category,
		CheckName: name,
		Status:    "warning",
		Score:     0,
		MaxScore:  0,
		Message:   message,
		Priority:  "medium",
	}
}
