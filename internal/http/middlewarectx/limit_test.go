package middlewarectx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
)

func doRequest(t *testing.T, handler http.Handler, userUID string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/audits", nil)
	ctx := context.WithValue(req.Context(), middlewarectx.UserUID, userUID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	return rec.Code
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger())(nextHandler)

	// Первый пользователь исчерпывает свой лимит.
	exhausted := false
	for range 40 {
		if doRequest(t, handler, "user-a") == http.StatusTooManyRequests {
			exhausted = true
			break
		}
	}
	assert.True(t, exhausted, "heavy caller should hit the limit")

	// Лимит соседа не затронут.
	assert.Equal(t, http.StatusOK, doRequest(t, handler, "user-b"))
}

func TestRateLimitMiddleware_AnonymousKeyedByAddress(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger())(nextHandler)

	req := httptest.NewRequest(http.MethodGet, "/audits", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
