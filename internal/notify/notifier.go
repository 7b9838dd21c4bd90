package notify

import (
	"context"

	"vitrii/pkg/kafka"
	"vitrii/pkg/logger"
)

// Domain event types published to the notifications topic. External workers
// (email, WhatsApp, ad activation) consume them; nothing in-process does.
const (
	EventReservaConfirmada = "reserva.confirmada"
	EventReservaRejeitada  = "reserva.rejeitada"
	EventReservaCancelada  = "reserva.cancelada"
	EventFilaAprovada      = "fila_espera.aprovada"
	EventFilaRejeitada     = "fila_espera.rejeitada"
	EventPagamentoPago     = "pagamento.pago"
)

// Notifier publishes domain events best-effort: a broker outage must never
// fail the HTTP request that triggered the notification.
type Notifier interface {
	Publish(ctx context.Context, eventType, aggregateID string, payload any)
}

type kafkaNotifier struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, source string, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (n *kafkaNotifier) Publish(ctx context.Context, eventType, aggregateID string, payload any) {
	msg := kafka.NewMessage().
		WithKey(aggregateID).
		WithValue(payload).
		WithEventID("").
		WithEventType(eventType).
		WithSource(n.source).
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		n.log.Warn("Failed to publish domain event",
			"event_type", eventType,
			"aggregate_id", aggregateID,
			"error", err,
		)
		return
	}

	n.log.Debug("Domain event published",
		"event_type", eventType,
		"aggregate_id", aggregateID,
	)
}

type nopNotifier struct{}

// NewNopNotifier returns a Notifier that drops everything. Used in tests and
// when no broker is configured.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) Publish(context.Context, string, string, any) {}
