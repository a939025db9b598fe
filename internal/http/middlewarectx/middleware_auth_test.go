package middlewarectx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
	"github.com/seoaudit-pro/audit-engine/internal/lib/jwt"
	"github.com/seoaudit-pro/audit-engine/internal/models"

	"io"
	"log/slog"
)

// Mock for TokenParser
type TokenParserMock struct {
	mock.Mock
}

func (m *TokenParserMock) ParseToken(tokenStr string) (*jwt.CustomClaims, error) {
	args := m.Called(tokenStr)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

// Mock for APIKeyResolver
type APIKeyResolverMock struct {
	mock.Mock
}

func (m *APIKeyResolverMock) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	args := m.Called(ctx, apiKey)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *APIKeyResolverMock) RecordAPIUsage(ctx context.Context, userUID, apiKey, endpoint string) error {
	return m.Called(ctx, userUID, apiKey, endpoint).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestAuthMiddleware_JWT(t *testing.T) {
	parserMock := new(TokenParserMock)
	resolverMock := new(APIKeyResolverMock)
	logger := newNoopLogger()

	handlerCalled := false

	// Test handler which checks context values
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		userUID := r.Context().Value(middlewarectx.UserUID)
		role := r.Context().Value(middlewarectx.Role)
		assert.Equal(t, "2e3486b3-9e98-4e0f-a057-d1b34dc7e8b2", userUID)
		assert.Equal(t, "user", role)
		w.WriteHeader(http.StatusOK)
	})

	handler := middlewarectx.AuthMiddleware(parserMock, resolverMock, logger)(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		mockClaims     *jwt.CustomClaims
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "token parse error",
			authHeader:     "Bearer token",
			mockClaims:     nil,
			mockErr:        errors.New("token has invalid claims"),
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:       "valid token",
			authHeader: "Bearer validtoken",
			mockClaims: &jwt.CustomClaims{
				UserUID:  "2e3486b3-9e98-4e0f-a057-d1b34dc7e8b2",
				Username: "testuser",
				Role:     "user",
			},
			mockErr:        nil,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			parserMock.ExpectedCalls = nil // reset calls
			parserMock.Calls = nil
			if tt.mockClaims != nil || tt.mockErr != nil {
				parserMock.On("ParseToken", strings.TrimPrefix(tt.authHeader, "Bearer ")).
					Return(tt.mockClaims, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			parserMock.AssertExpectations(t)
		})
	}
}

func TestAuthMiddleware_APIKey(t *testing.T) {
	logger := newNoopLogger()

	tests := []struct {
		name           string
		apiKey         string
		mockUser       *models.User
		mockErr        error
		usageErr       error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:   "valid api key",
			apiKey: "sk_live_abc123",
			mockUser: &models.User{
				UID:      "2e3486b3-9e98-4e0f-a057-d1b34dc7e8b2",
				Role:     "user",
				IsActive: true,
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "unknown api key",
			apiKey:         "sk_live_unknown",
			mockUser:       nil,
			mockErr:        errors.New("user not found"),
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:   "deactivated user",
			apiKey: "sk_live_abc123",
			mockUser: &models.User{
				UID:      "2e3486b3-9e98-4e0f-a057-d1b34dc7e8b2",
				Role:     "user",
				IsActive: false,
			},
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:   "usage recording failure does not block request",
			apiKey: "sk_live_abc123",
			mockUser: &models.User{
				UID:      "2e3486b3-9e98-4e0f-a057-d1b34dc7e8b2",
				Role:     "user",
				IsActive: true,
			},
			usageErr:       errors.New("storage unavailable"),
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parserMock := new(TokenParserMock)
			resolverMock := new(APIKeyResolverMock)

			handlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				assert.Equal(t, tt.mockUser.UID, r.Context().Value(middlewarectx.UserUID))
				assert.Equal(t, tt.mockUser.Role, r.Context().Value(middlewarectx.Role))
				w.WriteHeader(http.StatusOK)
			})

			resolverMock.On("GetUserByAPIKey", mock.Anything, tt.apiKey).
				Return(tt.mockUser, tt.mockErr).Once()
			if tt.wantCalled {
				resolverMock.On("RecordAPIUsage", mock.Anything, tt.mockUser.UID, tt.apiKey, "/somepath").
					Return(tt.usageErr).Once()
			}

			handler := middlewarectx.AuthMiddleware(parserMock, resolverMock, logger)(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			req.Header.Set("X-API-Key", tt.apiKey)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			resolverMock.AssertExpectations(t)
			parserMock.AssertNotCalled(t, "ParseToken", mock.Anything)
		})
	}
}
