// Package reportscheduler собирает приложение планировщика отчётов,
// публикующего события об истечении срока хранения файлов.
package reportscheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/seoaudit-pro/audit-engine/internal/config"
	"github.com/seoaudit-pro/audit-engine/internal/lib/rabbitmq"
	"github.com/seoaudit-pro/audit-engine/internal/services/reportsweeper"
	"github.com/seoaudit-pro/audit-engine/internal/storage/repository"
)

const (
	sweepInterval    = time.Hour
	expiryWarnWindow = 7 * 24 * time.Hour
)

// App представляет приложение планировщика отчётов.
type App struct {
	sweeper *reportsweeper.Sweeper
	conn    *amqp.Connection
	ch      *amqp.Channel
	db      *repository.Storage
	logger  *slog.Logger
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

// New создает новый экземпляр приложения планировщика отчётов.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetAuditQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	sweeper := reportsweeper.New(db, &rabbitmq.ChannelPublisher{Ch: ch}, sweepInterval, expiryWarnWindow, logger)

	return &App{
		sweeper: sweeper,
		conn:    conn,
		ch:      ch,
		db:      db,
		logger:  logger,
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

// Run запускает обходчик отчётов и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.sweeper.Run(ctx)

	a.logger.Info("shutting down report scheduler")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close database", slog.Any("err", err))
	}
	return nil
}
