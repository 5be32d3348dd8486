// Package consumer runs the Kafka read loop: fetch, dedupe through the
// inbox, hand to the message handler, commit.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/timely-app/timely-backend/libs/kafkax"
)

type Inbox interface {
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

type Handler func(ctx context.Context, msg kafka.Message) error

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

type Consumer struct {
	logger  *slog.Logger
	inbox   Inbox
	cfg     Config
	handler Handler
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	return &Consumer{logger: logger, inbox: inbox, cfg: cfg, handler: handler}
}

// Run blocks until ctx is cancelled. A handler error leaves the message
// uncommitted, so the group redelivers it; malformed payloads are the
// handler's job to swallow.
func (c *Consumer) Run(ctx context.Context) {
	brokers := kafkax.SplitBrokers(c.cfg.Brokers)
	if len(brokers) == 0 {
		c.logger.Warn("consumer disabled (no kafka brokers configured)", "topic", c.cfg.Topic)
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     c.cfg.GroupID,
		Topic:       c.cfg.Topic,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	tracer := otel.Tracer("consumer")
	c.logger.Info("consumer starting", "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error("fetch failed", "err", err, "topic", c.cfg.Topic)
			time.Sleep(time.Second)
			continue
		}

		msgCtx := kafkax.ExtractTraceContext(ctx, msg)
		msgCtx, span := tracer.Start(msgCtx, "consume "+msg.Topic, trace.WithSpanKind(trace.SpanKindConsumer))

		if err := c.process(msgCtx, msg); err != nil {
			span.End()
			c.logger.Error("message processing failed; will retry", "err", err, "topic", msg.Topic)
			time.Sleep(time.Second)
			continue
		}
		span.End()

		if err := reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit failed", "err", err, "topic", msg.Topic)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	fresh, err := c.inbox.MarkProcessed(ctx, meta.EventID, meta.EventType)
	if err != nil {
		return err
	}
	if !fresh {
		c.logger.Info("duplicate event skipped", "event_id", meta.EventID, "topic", msg.Topic)
		return nil
	}
	return c.handler(ctx, msg)
}
