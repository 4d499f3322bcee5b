package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
)

// ConsumeChannel - часть amqp.Channel, нужная для чтения очереди.
type ConsumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Handler обрабатывает тело сообщения.
type Handler func(body []byte) error

// ConsumeMessages читает очередь до отмены ctx или закрытия канала.
// Успешно обработанные сообщения подтверждаются, при ошибке сообщение
// отклоняется без повторной постановки в очередь.
func ConsumeMessages(ctx context.Context, ch ConsumeChannel, queue string, handler Handler, log *slog.Logger) error {
	const op = "rabbitmq.ConsumeMessages"
	log = log.With(slog.String("op", op), slog.String("queue", queue))

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				return nil
			}
			if err := handler(msg.Body); err != nil {
				log.Error("failed to handle message", sl.Err(err))
				if err := msg.Nack(false, false); err != nil {
					log.Error("failed to nack message", sl.Err(err))
				}
				continue
			}
			if err := msg.Ack(false); err != nil {
				log.Error("failed to ack message", sl.Err(err))
			}
		}
	}
}
