package checkrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit-pro/audit-engine/internal/checkprovider"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// fakeChecker имитирует исполнителя проверок: отдаёт результат
// после заданной задержки либо сразу возвращает ошибку.
type fakeChecker struct {
	category models.Category
	delay    time.Duration
	result   *models.CheckResult
	err      error
}

func (f *fakeChecker) Category() models.Category { return f.category }

func (f *fakeChecker) Run(ctx context.Context, _ string) (*models.CheckResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	select {
	case <-time.After(f.delay):
		return f.result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("checkrunner_test: %w", ctx.Err())
	}
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRunner_RunAllCollectsResults(t *testing.T) {
	runner := New(newNoopLogger(),
		&fakeChecker{
			category: models.CategorySeo,
			result:   &models.CheckResult{Category: models.CategorySeo, Score: 80, MaxScore: 100},
		},
		&fakeChecker{
			category: models.CategorySecurity,
			result:   &models.CheckResult{Category: models.CategorySecurity, Score: 60, MaxScore: 100},
		},
	)

	outcomes := runner.RunAll(context.Background(), "https://example.com",
		[]models.Category{models.CategorySeo, models.CategorySecurity}, time.Second)

	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Settled())
		assert.NoError(t, outcome.Err)
	}
}

func TestRunner_CheckTimeoutDegradesToWarning(t *testing.T) {
	runner := New(newNoopLogger(),
		&fakeChecker{
			category: models.CategorySeo,
			result:   &models.CheckResult{Category: models.CategorySeo, Score: 80, MaxScore: 100},
		},
		&fakeChecker{
			category: models.CategoryPerformance,
			delay:    time.Second,
			result:   &models.CheckResult{Category: models.CategoryPerformance, Score: 50, MaxScore: 100},
		},
	)

	outcomes := runner.RunAll(context.Background(), "https://example.com",
		[]models.Category{models.CategorySeo, models.CategoryPerformance}, 50*time.Millisecond)

	require.Len(t, outcomes, 2)
	byCategory := make(map[models.Category]Outcome)
	for _, o := range outcomes {
		byCategory[o.Category] = o
	}

	seo := byCategory[models.CategorySeo]
	assert.True(t, seo.Settled())

	perf := byCategory[models.CategoryPerformance]
	assert.False(t, perf.Settled())
	require.NotNil(t, perf.Detail)
	assert.Equal(t, "check timed out", perf.Detail.CheckName)
	assert.Equal(t, "warning", perf.Detail.Status)
	assert.Equal(t, 0, perf.Detail.MaxScore)
	assert.ErrorIs(t, perf.Err, context.DeadlineExceeded)
}

func TestRunner_UnavailableBackendDegrades(t *testing.T) {
	runner := New(newNoopLogger(),
		&fakeChecker{
			category: models.CategorySecurity,
			err:      fmt.Errorf("post failed: %w", checkprovider.ErrUnavailable),
		},
	)

	outcomes := runner.RunAll(context.Background(), "https://example.com",
		[]models.Category{models.CategorySecurity}, time.Second)

	require.Len(t, outcomes, 1)
	outcome := outcomes[0]
	assert.False(t, outcome.Settled())
	require.NotNil(t, outcome.Detail)
	assert.Equal(t, "check unavailable", outcome.Detail.CheckName)
	assert.ErrorIs(t, outcome.Err, checkprovider.ErrUnavailable)
}

func TestRunner_UnknownCategoryIsSkipped(t *testing.T) {
	runner := New(newNoopLogger(),
		&fakeChecker{
			category: models.CategorySeo,
			result:   &models.CheckResult{Category: models.CategorySeo, Score: 100, MaxScore: 100},
		},
	)

	outcomes := runner.RunAll(context.Background(), "https://example.com",
		[]models.Category{models.CategorySeo, models.CategorySocial}, time.Second)

	// Для social нет исполнителя: итог только один.
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.CategorySeo, outcomes[0].Category)
}

func TestRunner_GlobalContextCancelSettlesAll(t *testing.T) {
	runner := New(newNoopLogger(),
		&fakeChecker{
			category: models.CategorySeo,
			delay:    time.Second,
			result:   &models.CheckResult{Category: models.CategorySeo, Score: 100, MaxScore: 100},
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan []Outcome, 1)
	go func() {
		done <- runner.RunAll(ctx, "https://example.com",
			[]models.Category{models.CategorySeo}, time.Minute)
	}()

	select {
	case outcomes := <-done:
		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Settled())
		require.True(t, errors.Is(outcomes[0].Err, context.DeadlineExceeded) ||
			errors.Is(outcomes[0].Err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("RunAll did not settle after context cancellation")
	}
}
