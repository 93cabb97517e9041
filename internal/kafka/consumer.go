package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
)

// MessageHandler processes one consumed message. Returning nil commits it.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
	log      *zap.SugaredLogger
}

// NewConfluentKafkaConsumer prepares a consumer; the group is chosen in Consume.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig, log *zap.SugaredLogger) (MessageConsumer, error) {
	return &confluentKafkaConsumer{cfg: cfg, log: log}, nil
}

// Consume blocks until ctx is canceled or a fatal Kafka error occurs.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("create kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("subscribe to %v for group %s: %w", topics, groupID, err)
	}

	log := c.log.With("group", groupID)
	log.Infow("kafka consumer started", "topics", topics)

	for {
		select {
		case <-ctx.Done():
			log.Info("kafka consumer stopping")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			// a skipped offset is not redelivered once a later one commits
			if err := handler(ctx, e); err != nil {
				log.Errorw("processing kafka message", "topic", *e.TopicPartition.Topic, "offset", e.TopicPartition.Offset, "error", err)
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				log.Warnw("commit offset", "topic", *e.TopicPartition.Topic, "offset", e.TopicPartition.Offset, "error", err)
			}
		case kafka.Error:
			log.Errorw("kafka consumer error", "code", e.Code(), "fatal", e.IsFatal(), "error", e)
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.Infow("partitions assigned", "partitions", e.Partitions)
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Infow("partitions revoked", "partitions", e.Partitions)
			_ = c.consumer.Unassign()
		}
	}
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		c.log.Warnw("closing kafka consumer", "group", c.groupID, "error", err)
	}
	c.consumer = nil
}
