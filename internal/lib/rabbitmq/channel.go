package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// ChannelPublisher публикует события движка через открытый канал RabbitMQ.
// Сервисы принимают его как интерфейс, поэтому в тестах канал подменяется моком.
type ChannelPublisher struct {
	Ch *amqp.Channel
}

// Publish сериализует событие в JSON и публикует его в указанный обменник
// с ключом маршрутизации. Сообщения помечаются персистентными, чтобы
// пережить перезапуск брокера.
func (p *ChannelPublisher) Publish(exchange, routingKey string, message any) error {
	const op = "rabbitmq.Publish"

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.Ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
