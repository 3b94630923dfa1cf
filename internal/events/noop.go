package events

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// NoopSink логирует уведомления вместо публикации. Используется,
// когда брокер не сконфигурирован.
type NoopSink struct {
	logger *log.Entry
}

// NewNoop создаёт sink-заглушку.
func NewNoop(logger *log.Entry) *NoopSink {
	if logger == nil {
		logger = log.WithField("component", "event-sink-noop")
	}
	return &NoopSink{logger: logger}
}

func (s *NoopSink) Notify(n domain.Notification) {
	s.logger.WithFields(log.Fields{
		"entity_type": n.EntityType,
		"action":      n.Action,
	}).Debug("notification skipped, no event transport configured")
}

var _ domain.EventSink = (*NoopSink)(nil)
