// Package auditengine собирает основное приложение движка аудита:
// хранилище, кеш, брокер событий, клиентов внешних анализаторов
// и HTTP-сервер с маршрутами API.
package auditengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/seoaudit-pro/audit-engine/internal/cache"
	"github.com/seoaudit-pro/audit-engine/internal/checkprovider"
	"github.com/seoaudit-pro/audit-engine/internal/config"
	"github.com/seoaudit-pro/audit-engine/internal/lib/jwt"
	"github.com/seoaudit-pro/audit-engine/internal/lib/rabbitmq"
	"github.com/seoaudit-pro/audit-engine/internal/migrations"
	"github.com/seoaudit-pro/audit-engine/internal/models"
	"github.com/seoaudit-pro/audit-engine/internal/renderer"
	auditservice "github.com/seoaudit-pro/audit-engine/internal/services/audit"
	"github.com/seoaudit-pro/audit-engine/internal/services/checkrunner"
	leadservice "github.com/seoaudit-pro/audit-engine/internal/services/lead"
	"github.com/seoaudit-pro/audit-engine/internal/services/quota"
	reportservice "github.com/seoaudit-pro/audit-engine/internal/services/report"
	"github.com/seoaudit-pro/audit-engine/internal/settings"
	"github.com/seoaudit-pro/audit-engine/internal/storage/repository"
)

// App представляет приложение движка аудита.
type App struct {
	server       *http.Server
	auditService *auditservice.Service
	conn         *amqp.Connection
	ch           *amqp.Channel
	db           *repository.Storage
	logger       *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения движка аудита.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetAuditQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := &rabbitmq.ChannelPublisher{Ch: ch}

	settingsProvider, err := settings.NewProvider(ctx, db)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	providerClient := checkprovider.NewClient(cfg.CheckProviderURL, cfg.CheckProviderTimeout)
	rendererClient := renderer.NewClient(cfg.RendererURL, cfg.RendererTimeout)
	tokenMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	quotaLedger := quota.New(db, settingsProvider, logger)
	runner := checkrunner.New(logger,
		providerClient.Checker(models.CategorySeo),
		providerClient.Checker(models.CategoryPerformance),
		providerClient.Checker(models.CategorySecurity),
		providerClient.Checker(models.CategorySocial),
	)
	auditService := auditservice.New(db, quotaLedger, runner, providerClient,
		cacheRedis, settingsProvider, publisher, logger)
	reportService := reportservice.New(db, rendererClient, settingsProvider, logger)
	leadService := leadservice.New(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, tokenMaker, settingsProvider,
		auditService, reportService, leadService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:       srv,
		auditService: auditService,
		conn:         conn,
		ch:           ch,
		db:           db,
		logger:       logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
// При остановке дожидается завершения запущенных аудитов.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)

		a.logger.Info("waiting for running audits to finish")
		a.auditService.Wait()

		closeResources(a.ch, a.conn, a.logger)
		if dbErr := a.db.DB.Close(); dbErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", dbErr))
		}
		return err
	}
}
