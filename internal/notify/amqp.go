package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	RoutingKeyProposed = "swap.proposed"
	RoutingKeyAccepted = "swap.accepted"
	RoutingKeyRejected = "swap.rejected"
)

// SwapEvent тело сообщения о событии обмена
type SwapEvent struct {
	RequestID   uuid.UUID        `json:"request_id"`
	Status      model.SwapStatus `json:"status"`
	FromUserID  uuid.UUID        `json:"from_user_id"`
	ToUserID    uuid.UUID        `json:"to_user_id"`
	MySlotID    uuid.UUID        `json:"my_slot_id"`
	TheirSlotID uuid.UUID        `json:"their_slot_id"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

func newSwapEvent(req *model.SwapRequest, at time.Time) SwapEvent {
	return SwapEvent{
		RequestID:   req.ID,
		Status:      req.Status,
		FromUserID:  req.FromUserID,
		ToUserID:    req.ToUserID,
		MySlotID:    req.MySlotID,
		TheirSlotID: req.TheirSlotID,
		OccurredAt:  at.UTC(),
	}
}

// JSONPublisher публикует JSON по ключу маршрутизации
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Events публикует события обмена в шину
type Events struct {
	pub    JSONPublisher
	logger *zap.Logger
	now    func() time.Time
}

func NewEvents(pub JSONPublisher, logger *zap.Logger) *Events {
	return &Events{pub: pub, logger: logger, now: time.Now}
}

func (e *Events) SwapProposed(ctx context.Context, req *model.SwapRequest) {
	e.publish(ctx, RoutingKeyProposed, newSwapEvent(req, e.now()))
}

func (e *Events) SwapResolved(ctx context.Context, res *service.Resolution) {
	key := RoutingKeyRejected
	if res.Outcome == service.OutcomeAccepted {
		key = RoutingKeyAccepted
	}
	e.publish(ctx, key, newSwapEvent(res.Request, e.now()))
}

func (e *Events) publish(ctx context.Context, key string, ev SwapEvent) {
	if err := e.pub.PublishJSON(ctx, key, ev); err != nil {
		e.logger.Error("Failed to publish swap event",
			zap.String("routing_key", key),
			zap.Stringer("request_id", ev.RequestID),
			zap.Error(err),
		)
	}
}

// Publisher публикует сообщения в topic exchange RabbitMQ
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
