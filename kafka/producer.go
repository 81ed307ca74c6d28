// Package kafka publishes dead-lettered items to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"slices"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/redq/meta"
)

// Message represents a Producer Kafka message with key, value, and headers.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer represents a Kafka producer.
type Producer struct {
	topic        string
	syncProducer sarama.SyncProducer
}

// NewProducer connects a sync producer publishing to cfg.Topic.
// The client id is the service name from meta.SetServiceInfo.
func NewProducer(cfg Config) (*Producer, error) {
	saramaCfg, err := cfg.saramaConfig(meta.Service().Name)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	producer, err := sarama.NewSyncProducer(cfg.brokerList(), saramaCfg)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"brokers": cfg.Brokers}))
	}

	return NewProducerFrom(producer, cfg.Topic), nil
}

// NewProducerFrom wraps an existing sarama producer.
func NewProducerFrom(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{
		topic:        topic,
		syncProducer: sp,
	}
}

// Topic returns the topic messages are published to.
func (p *Producer) Topic() string { return p.topic }

// SendMessage sends a message to the configured Kafka topic.
func (p *Producer) SendMessage(ctx context.Context, m *Message) error {
	ctx, span := p.startSpan(ctx, string(m.Key))
	defer span.End()

	kafkaMsg := p.buildKafkaProducerMsg(ctx, m)

	partition, offset, err := p.syncProducer.SendMessage(kafkaMsg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errx.Wrap(err, errx.WithDetails(errx.D{
			"topic":     kafkaMsg.Topic,
			"partition": partition,
			"offset":    offset,
		}))
	}

	return nil
}

// SendMessages sends multiple messages to the configured Kafka topic.
func (p *Producer) SendMessages(ctx context.Context, messages []Message) error {
	ctx, span := p.startSpan(ctx, "")
	defer span.End()

	kafkaMessages := lo.Map(messages, func(m Message, _ int) *sarama.ProducerMessage {
		return p.buildKafkaProducerMsg(ctx, &m)
	})

	err := p.syncProducer.SendMessages(kafkaMessages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errx.Wrap(err, errx.WithDetails(errx.D{
			"topic":    p.topic,
			"messages": len(messages),
		}))
	}

	return nil
}

func (p *Producer) startSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return otel.Tracer("redq/kafka").Start(ctx, fmt.Sprintf("kafka.%s.publish", p.topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystem("kafka"),
			semconv.MessagingOperationPublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(key),
		),
	)
}

func (p *Producer) buildKafkaProducerMsg(ctx context.Context, m *Message) *sarama.ProducerMessage {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(m.Value),
	}
	if len(m.Key) > 0 {
		msg.Key = sarama.ByteEncoder(m.Key)
	}

	keys := lo.Keys(m.Headers)
	slices.Sort(keys)
	for _, k := range keys {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(m.Headers[k]),
		})
	}

	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: msg})

	return msg
}

// Close closes the producer.
func (p *Producer) Close() error {
	return errx.Wrap(p.syncProducer.Close())
}
