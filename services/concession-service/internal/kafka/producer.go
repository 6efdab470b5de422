package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"railway/common/metrics"
	"railway/services/concession-service/internal/concession"

	"github.com/IBM/sarama"
)

type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.MessagingMetrics
}

func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = "concession-service"
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	return config
}

func NewProducer(brokers []string, topic string, logger *slog.Logger, m *metrics.MessagingMetrics) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, err
	}

	logger.Info("kafka producer initialized", "brokers", brokers, "topic", topic)
	return NewWithSyncProducer(producer, topic, logger, m), nil
}

// NewWithSyncProducer wraps an existing sarama producer (mocks in tests).
func NewWithSyncProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger, m *metrics.MessagingMetrics) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger,
		metrics:  m,
	}
}

func (p *Producer) SendMessage(ctx context.Context, key string, value interface{}) error {
	valueBytes, err := json.Marshal(value)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal message", "error", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(valueBytes),
	}

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(msg)
	p.metrics.RecordPublish(ctx, p.topic, time.Since(start), err)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to send message to kafka", "error", err)
		return err
	}

	p.logger.InfoContext(ctx, "message sent to kafka", "topic", p.topic, "partition", partition, "offset", offset, "key", key)
	return nil
}

// PublishEvent sends a lifecycle event keyed by the profile id, so events of
// one concession stay ordered within a partition.
func (p *Producer) PublishEvent(ctx context.Context, event concession.Event) error {
	return p.SendMessage(ctx, event.ID, event)
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
