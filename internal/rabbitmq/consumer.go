package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
)

// ConsumerMessage запускает потребителя очереди queueName. Сообщение подтверждается,
// если handler вернул nil, иначе возвращается в очередь через requeueDelay.
// Одновременно обрабатывается не больше 10 сообщений.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, requeueDelay time.Duration, handler func(context.Context, []byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go Dispatch(ctx, log, delivery, requeueDelay, handler)
	return nil
}

// Dispatch читает доставки до закрытия канала или отмены ctx.
// Пока сообщение ждёт возврата в очередь, оно занимает слот обработки.
func Dispatch(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery, requeueDelay time.Duration, handler func(context.Context, []byte) error) {
	sem := make(chan struct{}, 10)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handle(ctx, log, d.Acknowledger, d.DeliveryTag, d.Body, requeueDelay, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func handle(ctx context.Context, log *slog.Logger, ack amqp.Acknowledger, tag uint64, body []byte, requeueDelay time.Duration, handler func(context.Context, []byte) error) {
	if err := handler(ctx, body); err != nil {
		log.Error("failed to handle message", slog.Duration("requeue_in", requeueDelay), sl.Err(err))
		t := time.NewTimer(requeueDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
		if nackErr := ack.Nack(tag, false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(tag, false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
