package events

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"winsbygroup.com/custserver/internal/customer"
)

// Kafka publishes events to a topic, keyed by customer id so changes to one
// customer stay ordered within a partition.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newKafka(producer, topic), nil
}

func newKafka(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "kafka-publisher"),
	}
}

func (p *Kafka) Publish(ctx context.Context, c customer.Change) error {
	e := NewEvent(ctx, c)
	body, err := e.encode()
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(e.Key()),
		Value:     sarama.ByteEncoder(body),
		Timestamp: e.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(e.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", e.Type, p.topic, err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     p.topic,
		"key":       e.Key(),
		"partition": partition,
		"offset":    offset,
	}).Debug("event sent")
	return nil
}

func (p *Kafka) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
