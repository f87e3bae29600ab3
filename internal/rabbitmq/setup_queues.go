package rabbitmq

import "github.com/magabrotheeeer/gamefolio/internal/models"

// RoutingPrefix префикс routing key событий сессий.
const RoutingPrefix = "session."

// QueueConfig очередь и ключ, по которому она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
	Exclusive  bool
}

// SessionQueues очереди одного инстанса BFF. Каждый инстанс получает все
// события сессий, потому что у каждого свой кеш.
func SessionQueues(base, instanceID string) []QueueConfig {
	return []QueueConfig{
		{QueueName: base + "." + instanceID, RoutingKey: RoutingPrefix + "*", Exclusive: true},
	}
}

// RoutingKey ключ маршрутизации для события.
func RoutingKey(kind models.SessionEventKind) string {
	return RoutingPrefix + string(kind)
}
