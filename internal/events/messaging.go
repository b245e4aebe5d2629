package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ChangesExchange = "pizzeria.changes"
	serviceName     = "pizzeria-service-go"
)

// Tables watched by the change feed.
const (
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TableMenuItems  = "menu_items"
)

// Row operations carried in a change notification.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RoutingKey builds the topic routing key for a table change, e.g. "orders.update".
func RoutingKey(table, op string) string {
	return table + "." + op
}

// TableBinding matches every operation on a table.
func TableBinding(table string) string {
	return table + ".#"
}

func declareChangesExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		ChangesExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
