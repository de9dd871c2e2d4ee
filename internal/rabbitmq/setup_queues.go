package rabbitmq

import "github.com/magabrotheeeer/qa-activity-tracker/internal/models"

// QueueConfig описывает очередь и ключ, с которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueue очередь, из которой notification-sender читает новые активности.
const NotificationQueue = "notifications.activity-submitted"

// GetNotificationQueues возвращает очереди уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: NotificationQueue, RoutingKey: models.EventActivitySubmitted},
	}
}
