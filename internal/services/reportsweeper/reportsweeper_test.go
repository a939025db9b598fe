package reportsweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) FindExpiredReports(ctx context.Context, now time.Time) ([]*models.Report, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Report), args.Error(1)
}

func (m *RepoMock) FindReportsExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]*models.Report, error) {
	args := m.Called(ctx, now, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Report), args.Error(1)
}

func (m *RepoMock) MarkReportExpiryNotified(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(exchange, routingKey string, message any) error {
	return m.Called(exchange, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newSweeper(repo *RepoMock, publisher *PublisherMock) *Sweeper {
	return New(repo, publisher, time.Hour, 7*24*time.Hour, newNoopLogger())
}

func TestSweeper_PublishesExpiredReports(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	repo.On("FindExpiredReports", mock.Anything, mock.Anything).Return([]*models.Report{
		{ID: 31, AuditID: 7, FilePath: "/reports/audit-7.pdf"},
		{ID: 32, AuditID: 8, FilePath: "/reports/audit-8.pdf"},
	}, nil).Once()
	repo.On("FindReportsExpiringSoon", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Report{}, nil).Once()
	publisher.On("Publish", "audits", "expired", mock.MatchedBy(func(e ExpiredEvent) bool {
		return e.ReportID == 31 && e.FilePath == "/reports/audit-7.pdf"
	})).Return(nil).Once()
	publisher.On("Publish", "audits", "expired", mock.MatchedBy(func(e ExpiredEvent) bool {
		return e.ReportID == 32
	})).Return(nil).Once()

	sweeper := newSweeper(repo, publisher)
	err := sweeper.sweep(context.Background())

	require.NoError(t, err)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSweeper_PublishesExpiringNotices(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	expiresAt := time.Now().Add(3 * 24 * time.Hour)
	repo.On("FindExpiredReports", mock.Anything, mock.Anything).
		Return([]*models.Report{}, nil).Once()
	repo.On("FindReportsExpiringSoon", mock.Anything, mock.Anything, 7*24*time.Hour).
		Return([]*models.Report{
			{ID: 41, AuditID: 9, UserUID: "2e3486b3-9e98-4e0f-a057-d1b34dc7e8b2", ExpiresAt: expiresAt},
		}, nil).Once()
	publisher.On("Publish", "audits", "expiring", mock.MatchedBy(func(e ExpiringEvent) bool {
		return e.ReportID == 41 && e.AuditID == 9 && e.ExpiresAt.Equal(expiresAt)
	})).Return(nil).Once()
	repo.On("MarkReportExpiryNotified", mock.Anything, 41).Return(nil).Once()

	sweeper := newSweeper(repo, publisher)
	err := sweeper.sweep(context.Background())

	require.NoError(t, err)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSweeper_ExpiringNoticeNotMarkedOnPublishFailure(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	repo.On("FindExpiredReports", mock.Anything, mock.Anything).
		Return([]*models.Report{}, nil).Once()
	repo.On("FindReportsExpiringSoon", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Report{{ID: 41, AuditID: 9}}, nil).Once()
	publisher.On("Publish", "audits", "expiring", mock.Anything).
		Return(errors.New("broker down")).Once()

	sweeper := newSweeper(repo, publisher)
	err := sweeper.sweep(context.Background())

	require.NoError(t, err)
	repo.AssertNotCalled(t, "MarkReportExpiryNotified", mock.Anything, mock.Anything)
}

func TestSweeper_NothingExpired(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)
	repo.On("FindExpiredReports", mock.Anything, mock.Anything).Return([]*models.Report{}, nil).Once()
	repo.On("FindReportsExpiringSoon", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Report{}, nil).Once()

	sweeper := newSweeper(repo, publisher)
	err := sweeper.sweep(context.Background())

	require.NoError(t, err)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweeper_BrokerFailureDoesNotStopSweep(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	repo.On("FindExpiredReports", mock.Anything, mock.Anything).Return([]*models.Report{
		{ID: 31, AuditID: 7, FilePath: "/reports/audit-7.pdf"},
		{ID: 32, AuditID: 8, FilePath: "/reports/audit-8.pdf"},
	}, nil).Once()
	repo.On("FindReportsExpiringSoon", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Report{}, nil).Once()
	publisher.On("Publish", "audits", "expired", mock.MatchedBy(func(e ExpiredEvent) bool {
		return e.ReportID == 31
	})).Return(errors.New("broker down")).Once()
	publisher.On("Publish", "audits", "expired", mock.MatchedBy(func(e ExpiredEvent) bool {
		return e.ReportID == 32
	})).Return(nil).Once()

	sweeper := newSweeper(repo, publisher)
	err := sweeper.sweep(context.Background())

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestSweeper_RunStopsOnContextCancel(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)
	repo.On("FindExpiredReports", mock.Anything, mock.Anything).Return([]*models.Report{}, nil)
	repo.On("FindReportsExpiringSoon", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Report{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sweeper := New(repo, publisher, 10*time.Millisecond, time.Hour, newNoopLogger())
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
	assert.GreaterOrEqual(t, len(repo.Calls), 2, "sweeper should run periodically")
}
