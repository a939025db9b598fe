// Package auditengine предоставляет маршруты для основного приложения.
package auditengine

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/admin/settingsreload"
	auditlist "github.com/seoaudit-pro/audit-engine/internal/http/handlers/audit/list"
	auditread "github.com/seoaudit-pro/audit-engine/internal/http/handlers/audit/read"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/audit/submit"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/health"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/lead/leadcapture"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/lead/leadlist"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/report/reportcreate"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/report/reportdownload"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/report/reportlist"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/website/websitelist"
	"github.com/seoaudit-pro/audit-engine/internal/http/handlers/website/websiteread"
	"github.com/seoaudit-pro/audit-engine/internal/http/middlewarectx"
	"github.com/seoaudit-pro/audit-engine/internal/lib/jwt"
	auditservice "github.com/seoaudit-pro/audit-engine/internal/services/audit"
	leadservice "github.com/seoaudit-pro/audit-engine/internal/services/lead"
	reportservice "github.com/seoaudit-pro/audit-engine/internal/services/report"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
	"github.com/seoaudit-pro/audit-engine/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	tokenMaker jwt.Maker, settingsProvider *settings.Provider,
	auditService *auditservice.Service, reportService *reportservice.Service,
	leadService *leadservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, db).ServeHTTP)
		r.Post("/leads", leadcapture.New(logger, leadService).ServeHTTP)
		r.Get("/audits/{id}", auditread.New(logger, auditService).ServeHTTP)
		r.Get("/websites", websitelist.New(logger, db).ServeHTTP)
		r.Get("/websites/{id}", websiteread.New(logger, db).ServeHTTP)

		// Группа с аутентификацией по JWT или ключу API
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AuthMiddleware(tokenMaker, db, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/audits", auditlist.New(logger, auditService).ServeHTTP)
			r.Get("/reports", reportlist.New(logger, reportService).ServeHTTP)
			r.Get("/reports/{id}/download", reportdownload.New(logger, reportService).ServeHTTP)
			r.Get("/admin/leads", leadlist.New(logger, leadService).ServeHTTP)
			r.Post("/admin/settings/reload", settingsreload.New(logger, settingsProvider).ServeHTTP)

			// Изменяющие состояние маршруты закрыты на время обслуживания
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.MaintenanceMiddleware(settingsProvider, logger))
				r.Post("/audits", submit.New(logger, auditService).ServeHTTP)
				r.Post("/reports", reportcreate.New(logger, reportService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
