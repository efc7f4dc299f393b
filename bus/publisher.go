package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes lifecycle events with the event name as routing key.
// Failures are logged and dropped; events are advisory.
type Publisher struct {
	ch       Channel
	exchange string
	timeout  time.Duration
	logger   *slog.Logger
}

var _ rentalAuth.EventSink = (*Publisher)(nil)

func NewPublisher(ch Channel, exchange string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		timeout:  5 * time.Second,
		logger:   logger.With("component", "bus", "role", "publisher"),
	}
}

func (p *Publisher) Emit(ctx context.Context, ev rentalAuth.Event) {
	body, err := json.Marshal(Envelope[rentalAuth.Event]{EventName: ev.Name, Payload: ev})
	if err != nil {
		p.logger.Warn("event encode failed", "event", ev.Name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.Timestamp,
		Type:         ev.Name,
		Body:         body,
	})
	if err != nil {
		p.logger.Warn("event publish failed", "event", ev.Name, "event_id", ev.ID, "error", err)
	}
}
