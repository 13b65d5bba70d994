// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"

	"github.com/anirudhqwerty/kastack-project/cliparse"
	"github.com/anirudhqwerty/kastack-project/models"
)

// Publisher announces finished pipeline runs.
type Publisher interface {
	Publish(ctx context.Context, run models.RunSummary) error
	Close() error
}

// Nop discards every run.
type Nop struct{}

func (Nop) Publish(context.Context, models.RunSummary) error { return nil }
func (Nop) Close() error                                     { return nil }

// saramaLogger forwards sarama's global logger to slog.
type saramaLogger struct{}

var _ sarama.StdLogger = saramaLogger{}

func (saramaLogger) Print(v ...interface{}) {
	slog.Debug(fmt.Sprint(v...), "component", "kafka")
}
func (saramaLogger) Printf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "kafka")
}
func (saramaLogger) Println(v ...interface{}) {
	slog.Debug(fmt.Sprint(v...), "component", "kafka")
}

func init() {
	sarama.Logger = saramaLogger{}
}

// Kafka publishes each run summary as a JSON message keyed by run ID.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

// ProducerConfig returns the sarama configuration used for run events.
func ProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = "olist-etl"
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 10 * time.Second
	config.Net.DialTimeout = 10 * time.Second
	return config
}

// NewKafka connects a synchronous producer to brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, errors.Wrap(err, "creating kafka producer")
	}
	return NewKafkaWithProducer(producer, topic), nil
}

// NewKafkaWithProducer wraps an existing producer.
func NewKafkaWithProducer(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

// New returns a Kafka publisher when brokers are configured, otherwise Nop.
func New(cfg cliparse.Config) (Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return Nop{}, nil
	}
	k, err := NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	slog.Info("publishing run events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return k, nil
}

// Publish sends run to the configured topic and waits for the ack.
func (k *Kafka) Publish(ctx context.Context, run models.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return errors.Wrap(err, "encoding run summary")
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(run.RunID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("status"), Value: []byte(run.Status)},
			{Key: []byte("trigger"), Value: []byte(run.Trigger)},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrapf(err, "publishing run %s", run.RunID)
	}

	slog.Debug("run event published",
		"run_id", run.RunID,
		"topic", k.topic,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
