package kafka

// Топики сервиса фулфилмента.
const (
	// TopicOrderEvents — исходящие уведомления о жизненном цикле заказов.
	TopicOrderEvents = "fulfillment.order.events"
	// TopicOrderCommands — входящие команды create/update/delete.
	TopicOrderCommands = "fulfillment.order.commands"
)

// DefaultCommandGroupID — consumer group обработчика команд.
const DefaultCommandGroupID = "fulfillment-command-handler"
