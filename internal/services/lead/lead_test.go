package lead

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) UpsertLead(ctx context.Context, lead models.Lead) (int, error) {
	args := m.Called(ctx, lead)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListLeads(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lead), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_Capture(t *testing.T) {
	auditID := 7

	tests := []struct {
		name       string
		req        models.DummyLead
		setupMocks func(r *RepoMock)
		wantID     int
		wantErr    bool
	}{
		{
			name: "lead from landing page",
			req:  models.DummyLead{Email: "visitor@example.com", Source: "landing"},
			setupMocks: func(r *RepoMock) {
				r.On("UpsertLead", mock.Anything, mock.MatchedBy(func(l models.Lead) bool {
					return l.Email == "visitor@example.com" &&
						l.Status == "new" &&
						l.ConversionScore == 10
				})).Return(1, nil).Once()
			},
			wantID: 1,
		},
		{
			name: "lead after viewing audit results is scored higher",
			req:  models.DummyLead{Email: "visitor@example.com", Source: "audit_results", AuditID: &auditID},
			setupMocks: func(r *RepoMock) {
				r.On("UpsertLead", mock.Anything, mock.MatchedBy(func(l models.Lead) bool {
					return l.AuditID != nil && *l.AuditID == 7 && l.ConversionScore == 50
				})).Return(2, nil).Once()
			},
			wantID: 2,
		},
		{
			name: "storage failure propagates",
			req:  models.DummyLead{Email: "visitor@example.com", Source: "landing"},
			setupMocks: func(r *RepoMock) {
				r.On("UpsertLead", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			service := New(repo, newNoopLogger())
			id, err := service.Capture(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_List(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListLeads", mock.Anything, "new", 50, 0).
		Return([]*models.Lead{{ID: 1, Email: "visitor@example.com", Status: "new"}}, nil).Once()

	service := New(repo, newNoopLogger())
	leads, err := service.List(context.Background(), "new", 50, 0)

	assert.NoError(t, err)
	assert.Len(t, leads, 1)
	repo.AssertExpectations(t)
}
