package qatracker

import (
	"fmt"
	"io"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/config"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/kafka"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/rabbitmq"
	activityservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/activity"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newPublisher подключает брокер, выбранный в events.broker.
// Для "none" возвращает nil, и события не публикуются.
func newPublisher(cfg *config.Config) (activityservice.EventPublisher, io.Closer, error) {
	const op = "qatracker.newPublisher"

	switch cfg.Events.Broker {
	case config.BrokerNone, "":
		return nil, nil, nil
	case config.BrokerRabbitMQ:
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		closer := closerFunc(func() error {
			_ = ch.Close()
			return conn.Close()
		})
		return rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange), closer, nil
	case config.BrokerKafka:
		publisher := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		return publisher, publisher, nil
	}
	return nil, nil, fmt.Errorf("%s: unknown events broker %q", op, cfg.Events.Broker)
}
