package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventHandler processes one decoded event. A returned error is retried
// with backoff; after the last attempt the event is logged as dropped.
type EventHandler func(ctx context.Context, e service.PortfolioEvent) error

const (
	defaultHandleAttempts = 5
	defaultHandleBackoff  = 500 * time.Millisecond
)

type KafkaConsumer struct {
	reader      messageReader
	logger      logger.Logger
	maxAttempts int
	backoff     time.Duration
}

func NewKafkaConsumer(cfg config.Config, log logger.Logger) (*KafkaConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    TopicPortfolioEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &KafkaConsumer{
		reader:      reader,
		logger:      log,
		maxAttempts: defaultHandleAttempts,
		backoff:     defaultHandleBackoff,
	}, nil
}

// Run consumes until ctx is cancelled. Undecodable messages are committed
// and skipped. Committing a later offset moves the group past any earlier
// message, so a failed event is never redelivered.
func (c *KafkaConsumer) Run(ctx context.Context, handle EventHandler) error {
	c.logger.Info("Worker listening on topic", zap.String("topic", TopicPortfolioEvents))
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("Failed to read message from Kafka", err)
			continue
		}

		var e service.PortfolioEvent
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			c.logger.Warn("Skipping undecodable event",
				zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset), zap.Error(err))
			c.commit(ctx, msg)
			continue
		}

		if err := c.handleWithRetry(ctx, handle, e); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Dropping event after retries", err,
				zap.String("event_type", string(e.Type)),
				zap.String("portfolio_id", e.PortfolioID),
				zap.Int64("offset", msg.Offset))
		}
		c.commit(ctx, msg)
	}
}

func (c *KafkaConsumer) handleWithRetry(ctx context.Context, handle EventHandler, e service.PortfolioEvent) error {
	attempts := max(c.maxAttempts, 1)
	delay := c.backoff
	var err error
	for i := 1; i <= attempts; i++ {
		if err = handle(ctx, e); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		c.logger.Warn("Retrying event",
			zap.String("event_type", string(e.Type)), zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}

func (c *KafkaConsumer) Close() {
	_ = c.reader.Close()
	c.logger.Info("Closed Kafka consumer")
}
