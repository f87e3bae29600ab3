package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SessionPublisher публикует события сессий. Канал amqp не потокобезопасен
// для публикации, поэтому вызовы сериализуются.
type SessionPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewSessionPublisher создает SessionPublisher.
func NewSessionPublisher(ch *amqp.Channel, exchange string) *SessionPublisher {
	return &SessionPublisher{ch: ch, exchange: exchange}
}

// Publish отправляет событие с routing key по его виду.
func (p *SessionPublisher) Publish(ctx context.Context, event models.SessionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishMessage(p.ch, p.exchange, RoutingKey(event.Kind), event)
}
