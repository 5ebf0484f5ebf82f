package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/pkg/changefeed"
	"github.com/dmehra2102/storefront/pkg/tracing"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, scope string, c changefeed.Change) error
}

// FeedBridge republishes order events from Kafka onto the buyer-scoped
// change feed that live order views subscribe to.
type FeedBridge struct {
	log    *slog.Logger
	reader MessageReader
	feed   Publisher
	idem   Deduper
	tracer trace.Tracer
}

func NewFeedBridge(log *slog.Logger, reader MessageReader, feed Publisher, idem Deduper) *FeedBridge {
	return &FeedBridge{
		log:    log,
		reader: reader,
		feed:   feed,
		idem:   idem,
		tracer: otel.Tracer("order-feed"),
	}
}

// Run consumes until ctx ends or the reader fails.
func (b *FeedBridge) Run(ctx context.Context) error {
	defer b.reader.Close()

	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		key := b.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := b.idem.Seen(ctx, key)
		if err != nil {
			b.log.Warn("idempotency check failed", "key", key, "err", err)
		}
		if seen {
			b.log.Info("duplicate message skipped", "key", key)
			_ = b.reader.CommitMessages(ctx, msg)
			continue
		}

		b.forward(ctx, msg)
		if err := b.reader.CommitMessages(ctx, msg); err != nil {
			b.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

func (b *FeedBridge) forward(ctx context.Context, msg kafka.Message) {
	eventType := tracing.HeaderValue(msg.Headers, "event_type")
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := b.tracer.Start(msgCtx, "ForwardOrderChange", trace.WithAttributes(
		attribute.String("event.type", eventType),
		attribute.String("order.id", string(msg.Key)),
	))
	defer span.End()

	userID := tracing.HeaderValue(msg.Headers, "user_id")
	if userID == "" {
		var ev struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			b.log.Error("unmarshal failed", "offset", msg.Offset, "err", err)
			return
		}
		userID = ev.UserID
	}
	if userID == "" {
		b.log.Warn("order event without user", "type", eventType, "order_id", string(msg.Key))
		return
	}

	c := changefeed.Change{
		Table:   application.FeedTable,
		Type:    eventType,
		Key:     string(msg.Key),
		Payload: json.RawMessage(msg.Value),
	}
	if err := b.feed.Publish(msgCtx, userID, c); err != nil {
		span.RecordError(err)
		b.log.Error("feed publish failed", "user_id", userID, "order_id", c.Key, "err", err)
		return
	}
	b.log.Debug("order change forwarded", "user_id", userID, "type", eventType, "order_id", c.Key)
}
