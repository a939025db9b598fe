package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
	"github.com/seoaudit-pro/audit-engine/internal/lib/urlx"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	auditservice "github.com/seoaudit-pro/audit-engine/internal/services/audit"
	"github.com/seoaudit-pro/audit-engine/internal/services/quota"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Submit(ctx context.Context, userUID string, req models.DummySubmit) (*models.Audit, error) {
	args := m.Called(ctx, userUID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Audit), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSubmitHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		userUID        string
		setupMocks     func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success - audit accepted",
			requestBody: models.DummySubmit{
				URL: "https://example.com",
			},
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", mock.MatchedBy(func(req models.DummySubmit) bool {
					return req.URL == "https://example.com"
				})).Return(&models.Audit{
					ID:     11,
					URL:    "https://example.com",
					Status: models.StatusPending,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"audit_id":11,"url":"https://example.com","status":"pending"}}`,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not a json",
			userUID:        "user123",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "missing url",
			requestBody:    models.DummySubmit{AuditType: "seo"},
			userUID:        "user123",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field URL is a required field"}`,
		},
		{
			name: "missing user UID",
			requestBody: models.DummySubmit{
				URL: "https://example.com",
			},
			userUID:        "",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name: "unknown audit category",
			requestBody: models.DummySubmit{
				URL:       "https://example.com",
				AuditType: "astrology",
			},
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", mock.Anything).
					Return(nil, fmt.Errorf("audit.Submit: %w", urlx.ErrInvalidURL)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid url"}`,
		},
		{
			name: "duplicate in-flight audit",
			requestBody: models.DummySubmit{
				URL: "https://example.com",
			},
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", mock.Anything).
					Return(nil, fmt.Errorf("audit.Submit: %w", auditservice.ErrDuplicateInFlight)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"audit for this url is already in flight"}`,
		},
		{
			name: "quota exceeded",
			requestBody: models.DummySubmit{
				URL: "https://example.com",
			},
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", mock.Anything).
					Return(nil, fmt.Errorf("audit.Submit: %w", quota.ErrQuotaExceeded)).Once()
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `{"status":"Error","error":"monthly audit quota exceeded"}`,
		},
		{
			name: "maintenance mode",
			requestBody: models.DummySubmit{
				URL: "https://example.com",
			},
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", mock.Anything).
					Return(nil, fmt.Errorf("audit.Submit: %w", auditservice.ErrMaintenance)).Once()
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"status":"Error","error":"service is under maintenance"}`,
		},
		{
			name: "service error",
			requestBody: models.DummySubmit{
				URL: "https://example.com",
			},
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", mock.Anything).
					Return(nil, fmt.Errorf("audit.Submit: db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not submit audit"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			handler := New(newNoopLogger(), service)

			tt.setupMocks(service)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/audits", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())

			service.AssertExpectations(t)
		})
	}
}

func TestSubmitHandler_New(t *testing.T) {
	logger := newNoopLogger()
	service := new(MockService)

	handler := New(logger, service)

	assert.NotNil(t, handler)
	assert.Equal(t, logger, handler.log)
	assert.Equal(t, service, handler.service)
	assert.NotNil(t, handler.validate)
}
