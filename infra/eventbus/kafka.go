package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yieldvault/ledger/pkg/eventbus"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID     string
	TopicPrefix string
}

// DefaultKafkaEventBusConfig returns default configuration for KafkaEventBus.
func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{
		GroupID:     "ledger",
		TopicPrefix: "ledger.events",
	}
}

// KafkaEventBus publishes each event type to its own topic and consumes
// them through a shared consumer group.
type KafkaEventBus struct {
	brokers []string
	writer  *kafka.Writer
	dialer  *kafka.Dialer
	ctx     context.Context

	handlers    map[string][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex

	readers    map[string]*kafka.Reader
	readersMtx sync.Mutex
	topicsMtx  sync.Mutex
	topics     map[string]struct{}

	logger *slog.Logger
	config *KafkaEventBusConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a new Kafka-backed event bus.
// brokers: Comma-separated brokers list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaEventBusConfig) (*KafkaEventBus, error) {
	parsedBrokers := parseBrokers(brokers)
	if len(parsedBrokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaEventBusConfig()
	}
	if config.GroupID == "" {
		config.GroupID = "ledger"
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = "ledger.events"
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsedBrokers...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers:  parsedBrokers,
		writer:   writer,
		dialer:   dialer,
		ctx:      ctx,
		handlers: make(map[string][]eventbus.HandlerFunc),
		readers:  make(map[string]*kafka.Reader),
		topics:   make(map[string]struct{}),
		logger:   logger.With("bus", "kafka"),
		config:   config,
		cancel:   cancel,
	}

	if err := bus.ping(ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	logger.Info("Kafka event bus initialized", "group_id", config.GroupID, "brokers", parsedBrokers)
	return bus, nil
}

// Close stops consumers and closes network resources.
func (b *KafkaEventBus) Close() error {
	if b == nil {
		return nil
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	if b.writer != nil {
		return b.writer.Close()
	}
	return nil
}

// Register registers an event handler. eventbus.All subscribes to every topic.
func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	if eventType == eventbus.All {
		for _, t := range eventbus.Types {
			b.ensureConsumer(t)
		}
		return
	}
	b.ensureConsumer(eventType)
}

// Emit publishes an event to the topic for its type, keyed by account so
// one account's events stay ordered within a partition.
func (b *KafkaEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	if b == nil || b.writer == nil {
		return fmt.Errorf("kafka event bus: writer not initialized")
	}
	raw, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	topic := topicNameFor(b.config.TopicPrefix, event.Type)
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.AccountID.String()),
		Value: raw,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func (b *KafkaEventBus) ping(ctx context.Context) error {
	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()
	return nil
}

func (b *KafkaEventBus) ensureConsumer(eventType string) {
	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()

	if _, exists := b.readers[eventType]; exists {
		return
	}
	topic := topicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		b.logger.Error("kafka ensure topic error", "error", err, "event_type", eventType)
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.config.GroupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(b.ctx, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(ctx context.Context, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "topic", reader.Config().Topic)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := b.processMessage(ctx, msg); err != nil {
			b.logger.Error("kafka message processing failed; will retry", "error", err, "topic", msg.Topic, "offset", msg.Offset)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// processMessage returns an error only when the message must be retried.
func (b *KafkaEventBus) processMessage(ctx context.Context, msg kafka.Message) error {
	event, err := decodeEnvelope(msg.Value)
	if err != nil {
		b.logger.Error("dropping malformed message", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		return nil
	}

	b.handlersMtx.RLock()
	var handlers []eventbus.HandlerFunc
	for registered, hs := range b.handlers {
		if matches(registered, event.Type) {
			handlers = append(handlers, hs...)
		}
	}
	b.handlersMtx.RUnlock()

	failed := false
	for _, h := range handlers {
		if !dispatch(ctx, b.logger, h, event) {
			failed = true
		}
	}
	if !failed {
		return nil
	}
	return b.publishToDLQ(ctx, event.Type, msg.Value)
}

func (b *KafkaEventBus) publishToDLQ(ctx context.Context, eventType string, raw []byte) error {
	dlqTopic := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(ctx, dlqTopic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: dlqTopic,
		Key:   []byte(eventType),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", dlqTopic)
	return nil
}

func (b *KafkaEventBus) ensureTopic(ctx context.Context, topic string) error {
	b.topicsMtx.Lock()
	_, exists := b.topics[topic]
	b.topicsMtx.Unlock()
	if exists {
		return nil
	}

	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka event bus: create topic failed: %w", err)
	}

	b.topicsMtx.Lock()
	b.topics[topic] = struct{}{}
	b.topicsMtx.Unlock()
	return nil
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", strings.TrimSpace(prefix), strings.ToLower(eventType))
}

func dlqTopicNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.dlq.%s", strings.TrimSpace(prefix), strings.ToLower(eventType))
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
