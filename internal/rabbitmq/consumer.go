package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
)

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// Consumer раздает сообщения очереди фиксированному числу обработчиков.
// Сообщение, на котором Handler вернул ошибку, возвращается в очередь
// один раз, при повторной ошибке оно отбрасывается.
type Consumer struct {
	ch      *amqp.Channel
	queue   string
	workers int
	handle  Handler
	log     *slog.Logger
	wg      sync.WaitGroup
}

// NewConsumer создает Consumer. workers < 1 означает один обработчик.
func NewConsumer(ch *amqp.Channel, queue string, workers int, handle Handler, log *slog.Logger) *Consumer {
	return &Consumer{
		ch:      ch,
		queue:   queue,
		workers: max(workers, 1),
		handle:  handle,
		log:     log.With(slog.String("queue", queue)),
	}
}

// Start подписывается на очередь и запускает обработчики. Они работают,
// пока не отменен ctx или брокер не закрыл канал.
func (c *Consumer) Start(ctx context.Context) error {
	const op = "rabbitmq.Consumer.Start"

	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.wg.Add(c.workers)
	for range c.workers {
		go c.work(ctx, deliveries)
	}
	c.log.Info("consumer started", sl.Op(op), slog.Int("workers", c.workers))
	return nil
}

// Wait ждет, пока обработчики завершат текущие сообщения.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) work(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.log.Info("delivery channel closed")
				return
			}
			c.settle(d, c.handle(ctx, d.Body))
		}
	}
}

func (c *Consumer) settle(d amqp.Delivery, handleErr error) {
	if handleErr == nil {
		if err := d.Ack(false); err != nil {
			c.log.Error("failed to ack message", sl.Err(err))
		}
		return
	}

	requeue := !d.Redelivered
	c.log.Warn("message rejected",
		slog.String("routing_key", d.RoutingKey),
		slog.Bool("requeue", requeue),
		sl.Err(handleErr),
	)
	if err := d.Nack(false, requeue); err != nil {
		c.log.Error("failed to nack message", sl.Err(err))
	}
}
