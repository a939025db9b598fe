package quota

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit-pro/audit-engine/internal/models"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) RolloverQuota(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}
func (m *RepoMock) ReserveAudit(ctx context.Context, uid string, freeLimit int) (bool, error) {
	args := m.Called(ctx, uid, freeLimit)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) ReleaseAudit(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type settingsRepoStub struct{ raw map[string]string }

func (s *settingsRepoStub) ListSettings(context.Context) (map[string]string, error) {
	return s.raw, nil
}

func newSettingsProvider(t *testing.T, raw map[string]string) *settings.Provider {
	t.Helper()
	provider, err := settings.NewProvider(context.Background(), &settingsRepoStub{raw: raw})
	require.NoError(t, err)
	return provider
}

func TestLedger_TryReserve(t *testing.T) {
	const uid = "4b29a9a0-7d2f-4a52-a2a9-000000000001"

	tests := []struct {
		name       string
		rawSetting map[string]string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "success reserve",
			setupMocks: func(r *RepoMock) {
				r.On("RolloverQuota", mock.Anything, uid).Return(nil).Once()
				r.On("ReserveAudit", mock.Anything, uid, 5).Return(true, nil).Once()
			},
		},
		{
			name:       "free ceiling comes from settings snapshot",
			rawSetting: map[string]string{"max_free_audits_per_month": "3"},
			setupMocks: func(r *RepoMock) {
				r.On("RolloverQuota", mock.Anything, uid).Return(nil).Once()
				r.On("ReserveAudit", mock.Anything, uid, 3).Return(true, nil).Once()
			},
		},
		{
			name: "quota exhausted",
			setupMocks: func(r *RepoMock) {
				r.On("RolloverQuota", mock.Anything, uid).Return(nil).Once()
				r.On("ReserveAudit", mock.Anything, uid, 5).Return(false, nil).Once()
			},
			wantErr: ErrQuotaExceeded,
		},
		{
			name: "rollover failure propagates",
			setupMocks: func(r *RepoMock) {
				r.On("RolloverQuota", mock.Anything, uid).Return(errors.New("db down")).Once()
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			ledger := New(repo, newSettingsProvider(t, tt.rawSetting), newNoopLogger())
			err := ledger.TryReserve(context.Background(), uid)

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else if errors.Is(tt.wantErr, ErrQuotaExceeded) {
				assert.ErrorIs(t, err, ErrQuotaExceeded)
			} else {
				assert.ErrorContains(t, err, tt.wantErr.Error())
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLedger_Remaining(t *testing.T) {
	const uid = "4b29a9a0-7d2f-4a52-a2a9-000000000002"

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{
			name: "free tier with quota remaining",
			user: &models.User{UID: uid, SubscriptionTier: models.TierFree, MonthlyAuditLimit: 5, MonthlyAuditsUsed: 2},
			want: 3,
		},
		{
			name: "exhausted quota is zero, not negative",
			user: &models.User{UID: uid, SubscriptionTier: models.TierStarter, MonthlyAuditLimit: 50, MonthlyAuditsUsed: 51},
			want: 0,
		},
		{
			name: "enterprise is unlimited",
			user: &models.User{UID: uid, SubscriptionTier: models.TierEnterprise, MonthlyAuditLimit: 0, MonthlyAuditsUsed: 9000},
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetUser", mock.Anything, uid).Return(tt.user, nil).Once()

			ledger := New(repo, newSettingsProvider(t, nil), newNoopLogger())
			got, err := ledger.Remaining(context.Background(), uid)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestLedger_ReleaseLogsAndSwallowsError(t *testing.T) {
	const uid = "4b29a9a0-7d2f-4a52-a2a9-000000000003"
	repo := new(RepoMock)
	repo.On("ReleaseAudit", mock.Anything, uid).Return(errors.New("db down")).Once()

	ledger := New(repo, newSettingsProvider(t, nil), newNoopLogger())
	// Release не возвращает ошибку: возврат квоты не должен ронять пайплайн аудита.
	ledger.Release(context.Background(), uid)
	repo.AssertExpectations(t)
}
