package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/lifecycle"
)

// CommandType перечисляет поддерживаемые команды над заказами.
type CommandType string

const (
	CommandCreateOrder CommandType = "order.create"
	CommandUpdateOrder CommandType = "order.update"
	CommandDeleteOrder CommandType = "order.delete"
)

// Line — позиция заказа в команде.
type Line struct {
	ProductID  string `json:"product_id"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

// Envelope — конверт команды из топика заказов. Wire-формат принадлежит
// отправляющей стороне; здесь только его потребление.
type Envelope struct {
	CommandID string      `json:"command_id"`
	Type      CommandType `json:"type"`
	OrderID   string      `json:"order_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	ClientRef string      `json:"client_ref,omitempty"`
	Lines     []Line      `json:"lines,omitempty"`
}

// Handler транслирует команды из Kafka в операции менеджера жизненного цикла.
type Handler struct {
	manager *lifecycle.Manager
	logger  *log.Entry
}

// NewHandler создаёт обработчик команд.
func NewHandler(manager *lifecycle.Manager, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "command-handler")
	}
	return &Handler{manager: manager, logger: logger}
}

// Handle разбирает сообщение и исполняет команду. Бизнес-отказы
// (нехватка стока, неизвестный заказ) — валидный исход команды:
// они логируются как warning и не считаются ошибкой обработки.
func (h *Handler) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var env Envelope
	if err := json.Unmarshal(message.Value, &env); err != nil {
		return fmt.Errorf("decode command envelope: %w", err)
	}

	logger := h.logger.WithFields(log.Fields{
		"command_id": env.CommandID,
		"type":       env.Type,
	})

	var err error
	switch env.Type {
	case CommandCreateOrder:
		var order domain.Order
		order, err = h.manager.Create(ctx, lifecycle.OrderInput{
			UserID:    env.UserID,
			ClientRef: env.ClientRef,
			Lines:     linesFromEnvelope(env.Lines),
		})
		if err == nil {
			logger = logger.WithField("order_id", order.ID)
		}
	case CommandUpdateOrder:
		_, err = h.manager.Update(ctx, env.OrderID, lifecycle.OrderInput{
			UserID:    env.UserID,
			ClientRef: env.ClientRef,
			Lines:     linesFromEnvelope(env.Lines),
		})
		logger = logger.WithField("order_id", env.OrderID)
	case CommandDeleteOrder:
		err = h.manager.Delete(ctx, env.OrderID)
		logger = logger.WithField("order_id", env.OrderID)
	default:
		return fmt.Errorf("unknown command type %q", env.Type)
	}

	if err != nil {
		if domain.IsDomainError(err) {
			logger.WithError(err).Warn("command rejected")
			return nil
		}
		return fmt.Errorf("execute command %s: %w", env.Type, err)
	}

	logger.Info("command executed")
	return nil
}

func linesFromEnvelope(lines []Line) []lifecycle.LineInput {
	inputs := make([]lifecycle.LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, lifecycle.LineInput{
			ProductID:      line.ProductID,
			Qty:            line.Qty,
			UnitPriceMinor: line.PriceMinor,
		})
	}
	return inputs
}
