package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListSettings(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func TestProvider_DefaultsOnEmptyTable(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSettings", mock.Anything).Return(map[string]string{}, nil).Once()

	provider, err := NewProvider(context.Background(), repo)
	require.NoError(t, err)

	snap := provider.Current()
	assert.Equal(t, 5, snap.MaxFreeAuditsPerMonth)
	assert.Equal(t, 120*time.Second, snap.AuditTimeout)
	assert.Equal(t, 30*time.Second, snap.CheckTimeout)
	assert.Equal(t, 90, snap.ReportRetentionDays)
	assert.Equal(t, models.AllCategories(), snap.DefaultAuditChecks)
	assert.False(t, snap.MaintenanceMode)
	repo.AssertExpectations(t)
}

func TestProvider_ParsesStoredValues(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSettings", mock.Anything).Return(map[string]string{
		KeyMaxFreeAudits:      "10",
		KeyAuditTimeout:       "60",
		KeyCheckTimeout:       "15",
		KeyReportRetention:    "30",
		KeyDefaultAuditChecks: "seo, security",
		KeyCategoryWeights:    `{"seo": 2, "security": 1}`,
		KeyMaintenanceMode:    "true",
	}, nil).Once()

	provider, err := NewProvider(context.Background(), repo)
	require.NoError(t, err)

	snap := provider.Current()
	assert.Equal(t, 10, snap.MaxFreeAuditsPerMonth)
	assert.Equal(t, time.Minute, snap.AuditTimeout)
	assert.Equal(t, 15*time.Second, snap.CheckTimeout)
	assert.Equal(t, 30, snap.ReportRetentionDays)
	assert.Equal(t, []models.Category{models.CategorySeo, models.CategorySecurity}, snap.DefaultAuditChecks)
	assert.Equal(t, 2.0, snap.CategoryWeights[models.CategorySeo])
	assert.True(t, snap.MaintenanceMode)
	repo.AssertExpectations(t)
}

func TestProvider_MalformedValuesFallBackToDefaults(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSettings", mock.Anything).Return(map[string]string{
		KeyMaxFreeAudits:      "not a number",
		KeyCategoryWeights:    "{broken json",
		KeyDefaultAuditChecks: "bogus, categories",
	}, nil).Once()

	provider, err := NewProvider(context.Background(), repo)
	require.NoError(t, err)

	snap := provider.Current()
	assert.Equal(t, 5, snap.MaxFreeAuditsPerMonth)
	assert.Equal(t, 1.0, snap.CategoryWeights[models.CategorySeo])
	assert.Equal(t, models.AllCategories(), snap.DefaultAuditChecks)
	repo.AssertExpectations(t)
}

func TestProvider_ReloadSwapsSnapshot(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSettings", mock.Anything).Return(map[string]string{}, nil).Once()
	repo.On("ListSettings", mock.Anything).Return(map[string]string{
		KeyMaintenanceMode: "true",
	}, nil).Once()

	provider, err := NewProvider(context.Background(), repo)
	require.NoError(t, err)
	assert.False(t, provider.Current().MaintenanceMode)

	require.NoError(t, provider.Reload(context.Background()))
	assert.True(t, provider.Current().MaintenanceMode)
	repo.AssertExpectations(t)
}

func TestProvider_ReloadFailureKeepsOldSnapshot(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSettings", mock.Anything).Return(map[string]string{
		KeyMaxFreeAudits: "7",
	}, nil).Once()
	repo.On("ListSettings", mock.Anything).Return(nil, errors.New("db down")).Once()

	provider, err := NewProvider(context.Background(), repo)
	require.NoError(t, err)

	require.Error(t, provider.Reload(context.Background()))
	assert.Equal(t, 7, provider.Current().MaxFreeAuditsPerMonth)
	repo.AssertExpectations(t)
}
