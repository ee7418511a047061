//go:build kafka

package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	testcontainerskafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/yieldvault/ledger/pkg/eventbus"
)

// setupKafkaBus starts a Kafka container and returns a KafkaEventBus and a
// cleanup function.
func setupKafkaBus(tb testing.TB) (*KafkaEventBus, func()) {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	kafkaContainer, err := testcontainerskafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	if err != nil {
		tb.Fatalf("failed to start kafka container: %v", err)
	}
	brokers, err := kafkaContainer.Brokers(ctx)
	if err != nil {
		tb.Fatalf("failed to get kafka brokers: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus, err := NewWithKafka(strings.Join(brokers, ","), logger, &KafkaEventBusConfig{
		GroupID:     "ledger-test-" + uuid.NewString(),
		TopicPrefix: "ledger.test",
	})
	if err != nil {
		tb.Fatalf("failed to create kafka event bus: %v", err)
	}
	return bus, func() {
		_ = bus.Close()
		_ = kafkaContainer.Terminate(context.Background())
	}
}

func TestKafkaBusHandlerReceivesEvent(t *testing.T) {
	bus, cleanup := setupKafkaBus(t)
	defer cleanup()

	received := make(chan eventbus.Event, 1)
	bus.Register(eventbus.TransactionCreated, func(_ context.Context, e eventbus.Event) error {
		received <- e
		return nil
	})

	sent := eventbus.NewEvent(eventbus.TransactionCreated, uuid.New())
	require.NoError(t, bus.Emit(context.Background(), sent))

	select {
	case got := <-received:
		require.Equal(t, sent.ID, got.ID)
	case <-time.After(20 * time.Second):
		t.Fatal("handler did not receive event in time")
	}
}

func TestKafkaBusDLQ(t *testing.T) {
	bus, cleanup := setupKafkaBus(t)
	defer cleanup()

	bus.Register(eventbus.TransactionReversed, func(context.Context, eventbus.Event) error {
		return errors.New("simulated failure")
	})
	require.NoError(t, bus.Emit(context.Background(), eventbus.NewEvent(eventbus.TransactionReversed, uuid.New())))

	dlqReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     bus.brokers,
		Topic:       dlqTopicNameFor(bus.config.TopicPrefix, eventbus.TransactionReversed),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	defer func() { _ = dlqReader.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	msg, err := dlqReader.FetchMessage(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, msg.Value)
}
