package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
)

const TopicPortfolioEvents = "portfolio.events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes portfolio events keyed by portfolio id, so events
// for one portfolio stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger logger.Logger
}

func NewKafkaPublisher(cfg config.Config, log logger.Logger) (*KafkaPublisher, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicPortfolioEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka producer successfully.", zap.String("topic", TopicPortfolioEvents))
	return &KafkaPublisher{writer: writer, logger: log}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e service.PortfolioEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode portfolio event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.PortfolioID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("Failed to publish portfolio event", err,
			zap.String("event_type", string(e.Type)),
			zap.String("portfolio_id", e.PortfolioID))
		return fmt.Errorf("failed to publish portfolio event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	if p.writer != nil {
		_ = p.writer.Close()
	}
	p.logger.Info("Closed Kafka producer")
}
