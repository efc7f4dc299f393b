package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Member events that invalidate every token of the member.
const (
	EventPasswordChanged = "member.password_changed"
	EventRoleChanged     = "member.role_changed"
	EventMemberDeleted   = "member.deleted"
)

// MemberEvents lists the routing keys the consumer binds.
var MemberEvents = []string{EventPasswordChanged, EventRoleChanged, EventMemberDeleted}

// MemberPayload is the payload of every member event.
type MemberPayload struct {
	MemberUID int64 `json:"memberUid"`
}

// Expirer is implemented by *rentalAuth.Engine.
type Expirer interface {
	ForceExpireAll(ctx context.Context, uid int64) (rentalAuth.ExpireAllResult, error)
}

// Consumer force-expires tokens in response to member events.
type Consumer struct {
	expirer Expirer
	logger  *slog.Logger
}

func NewConsumer(expirer Expirer, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Consumer{expirer: expirer, logger: logger.With("component", "bus", "role", "consumer")}
}

// Subscribe declares queue, binds it to every member event and starts a
// manual-ack consumer.
func Subscribe(ch Channel, exchange, queue string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := DeclareExchange(ch, exchange); err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}
	for _, key := range MemberEvents {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind %q: %w", key, err)
		}
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("qos: %w", err)
		}
	}
	deliveries, err := ch.Consume(q.Name, "rentalauth", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %q: %w", queue, err)
	}
	return deliveries, nil
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var env Envelope[MemberPayload]
	if err := json.Unmarshal(d.Body, &env); err != nil || env.Payload.MemberUID <= 0 {
		c.logger.Warn("discarding malformed member event", "routing_key", d.RoutingKey, "message_id", d.MessageId)
		_ = d.Nack(false, false)
		return
	}
	if !isMemberEvent(env.EventName) {
		c.logger.Debug("ignoring event", "event", env.EventName)
		_ = d.Ack(false)
		return
	}

	res, err := c.expirer.ForceExpireAll(ctx, env.Payload.MemberUID)
	if err != nil {
		c.logger.Error("force-expire-all failed",
			"event", env.EventName,
			"member_uid", env.Payload.MemberUID,
			"error", err,
		)
		// retry only what a retry can fix
		_ = d.Nack(false, errors.Is(err, rentalAuth.ErrStoreUnavailable))
		return
	}
	c.logger.Info("member tokens expired",
		"event", env.EventName,
		"member_uid", res.MemberUID,
		"expired", res.Expired,
		"logged_out", res.LoggedOut,
	)
	_ = d.Ack(false)
}

func isMemberEvent(name string) bool {
	for _, e := range MemberEvents {
		if e == name {
			return true
		}
	}
	return false
}
