package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/gamefolio/internal/config"
)

// Connect подключается к брокеру из cfg. Неудачный dial повторяется
// cfg.Retries раз с паузой cfg.RetryDelay, отмена ctx прерывает ожидание.
func Connect(ctx context.Context, cfg config.RabbitMQ) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"

	attempts := max(cfg.Retries, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := amqp.Dial(cfg.URL)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%s: %d attempts: %w", op, attempts, lastErr)
}

// SetupChannel открывает канал потребителя: prefetch по числу обработчиков,
// topic-exchange событий и привязанные к нему очереди.
func SetupChannel(conn *amqp.Connection, cfg config.RabbitMQ, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(max(cfg.Workers, 1), 0, false); err != nil {
		return nil, fmt.Errorf("%s: qos: %w", op, err)
	}
	if err := declareExchange(ch, cfg.Exchange); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, q := range queues {
		if err := bindQueue(ch, cfg.Exchange, q); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return ch, nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	const (
		durable    = true
		autoDelete = false
		internal   = false
		noWait     = false
	)
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, durable, autoDelete, internal, noWait, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// bindQueue объявляет очередь и привязывает ее к exchange. Очередь инстанса
// exclusive и удаляется вместе с его подключением.
func bindQueue(ch *amqp.Channel, exchange string, q QueueConfig) error {
	if _, err := ch.QueueDeclare(q.QueueName, !q.Exclusive, q.Exclusive, q.Exclusive, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", q.QueueName, err)
	}
	if err := ch.QueueBind(q.QueueName, q.RoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", q.QueueName, q.RoutingKey, err)
	}
	return nil
}
