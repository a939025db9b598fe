package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// AuditsExchange — общий exchange событий движка аудита.
const AuditsExchange = "audits"

// QueueConfig связывает очередь с ключом маршрутизации в exchange audits.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetAuditQueues возвращает очереди событий движка:
// audit.completed и report.expiring потребляют почтовые и webhook-воркеры,
// report.expired — внешний сборщик файлов отчётов.
func GetAuditQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "audit.completed", RoutingKey: "completed"},
		{QueueName: "report.expiring", RoutingKey: "expiring"},
		{QueueName: "report.expired", RoutingKey: "expired"},
	}
}

// SetupChannel открывает канал, объявляет exchange audits и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	err = ch.ExchangeDeclare(
		AuditsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			AuditsExchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
