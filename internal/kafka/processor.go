package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
)

// Reader часть *kafka.Reader, нужная процессору.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader создаёт reader группы groupID для топика topic.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

const (
	defaultRetryDelay = time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Processor читает сообщения и передаёт тело в handler.
// Смещение фиксируется только после успешной обработки. Сообщение с ошибкой
// обрабатывается повторно с растущей задержкой, следующее не читается до его успеха.
type Processor struct {
	reader     Reader
	handler    func(context.Context, []byte) error
	log        *slog.Logger
	retryDelay time.Duration
	maxDelay   time.Duration
}

// NewProcessor создаёт Processor.
func NewProcessor(log *slog.Logger, reader Reader, handler func(context.Context, []byte) error) *Processor {
	return &Processor{
		reader:     reader,
		handler:    handler,
		log:        log,
		retryDelay: defaultRetryDelay,
		maxDelay:   defaultMaxDelay,
	}
}

// Run обрабатывает сообщения до отмены ctx.
func (p *Processor) Run(ctx context.Context) error {
	delay := p.retryDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.log.Error("fetch error", sl.Err(err))
			if err := wait(ctx, delay); err != nil {
				return err
			}
			delay = p.next(delay)
			continue
		}
		delay = p.retryDelay

		if err := p.handle(ctx, msg); err != nil {
			return err
		}

		if err := p.reader.CommitMessages(ctx, msg); err != nil {
			p.log.Error("commit error", sl.Err(err))
		}
	}
}

// handle вызывает handler, пока он не вернёт nil или не будет отменён ctx.
func (p *Processor) handle(ctx context.Context, msg kafka.Message) error {
	delay := p.retryDelay
	for attempt := 1; ; attempt++ {
		err := p.handler(ctx, msg.Value)
		if err == nil {
			return nil
		}
		p.log.Error("handler error",
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			sl.Err(err))
		if err := wait(ctx, delay); err != nil {
			return err
		}
		delay = p.next(delay)
	}
}

func (p *Processor) next(d time.Duration) time.Duration {
	d *= 2
	if d > p.maxDelay {
		return p.maxDelay
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
