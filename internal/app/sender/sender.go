// Package sender собирает сервис уведомлений: читает события activity.submitted
// из брокера и рассылает письма QA-менеджерам.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/config"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/kafka"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/sender"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/storage/repository"
)

type App struct {
	broker        string
	conn          *amqp.Connection
	ch            *amqp.Channel
	reader        *kafkaReader
	requeueDelay  time.Duration
	db            *repository.Storage
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

type kafkaReader struct {
	processor *kafka.Processor
	close     func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	app := &App{
		broker:        cfg.Events.Broker,
		db:            db,
		senderService: senderservice.NewSenderService(logger, transport, db),
		logger:        logger,
	}

	switch cfg.Events.Broker {
	case config.BrokerRabbitMQ:
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			_ = db.Close()
			return nil, err
		}
		app.conn, app.ch = conn, ch
		app.requeueDelay = cfg.RabbitMQ.RequeueDelay
	case config.BrokerKafka:
		reader := kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		app.reader = &kafkaReader{
			processor: kafka.NewProcessor(logger, reader, app.senderService.HandleActivitySubmitted),
			close:     reader.Close,
		}
	default:
		_ = db.Close()
		return nil, fmt.Errorf("%s: events broker %q has nothing to consume", op, cfg.Events.Broker)
	}
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	switch a.broker {
	case config.BrokerRabbitMQ:
		err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.NotificationQueue, a.requeueDelay, a.senderService.HandleActivitySubmitted)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.NotificationQueue), sl.Err(err))
			a.shutdown()
			return err
		}
		a.logger.Info("consuming activity events", slog.String("queue", rabbitmq.NotificationQueue))
		<-ctx.Done()
	case config.BrokerKafka:
		a.logger.Info("consuming activity events from kafka")
		if err := a.reader.processor.Run(ctx); err != nil && ctx.Err() == nil {
			a.shutdown()
			return err
		}
	}

	a.logger.Info("sender service shutting down gracefully")
	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.reader != nil {
		if err := a.reader.close(); err != nil {
			a.logger.Error("failed to close kafka reader", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
