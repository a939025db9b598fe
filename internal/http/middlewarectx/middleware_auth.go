// Package middlewarectx содержит HTTP middleware движка аудита.
//
// AuthMiddleware проверяет JWT из заголовка Authorization или ключ API
// из заголовка X-API-Key и кладёт в контекст UID и роль пользователя.
// Остальные middleware реализуют ограничение частоты запросов
// и режим обслуживания.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/seoaudit-pro/audit-engine/internal/http/response"
	"github.com/seoaudit-pro/audit-engine/internal/lib/jwt"
	"github.com/seoaudit-pro/audit-engine/internal/lib/sl"
	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для UID пользователя в контексте
	UserUID Key = "user_uid"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
)

// TokenParser описывает проверку JWT, выпущенного внешним сервисом аутентификации.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// APIKeyResolver описывает поиск пользователя по ключу API
// и учёт запроса в статистике использования API.
type APIKeyResolver interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	RecordAPIUsage(ctx context.Context, userUID, apiKey, endpoint string) error
}

// AuthMiddleware возвращает HTTP middleware, который аутентифицирует запрос
// по JWT в заголовке Authorization либо по ключу API в заголовке X-API-Key.
//
// При успехе кладёт UID и роль пользователя в контекст запроса,
// иначе возвращает HTTP 401 Unauthorized.
func AuthMiddleware(parser TokenParser, resolver APIKeyResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AuthMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				user, err := resolver.GetUserByAPIKey(r.Context(), apiKey)
				if err != nil || !user.IsActive {
					log.Error("invalid api key")
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.Error("invalid api key"))
					return
				}
				if err := resolver.RecordAPIUsage(r.Context(), user.UID, apiKey, r.URL.Path); err != nil {
					log.Error("failed to record api usage", sl.Err(err))
				}
				ctx := context.WithValue(r.Context(), UserUID, user.UID)
				ctx = context.WithValue(ctx, Role, user.Role)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
