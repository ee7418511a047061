package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yieldvault/ledger/pkg/eventbus"
)

const streamMaxLen = 10000

// RedisEventBus implements eventbus.Bus over a single Redis stream. Each bus
// instance reads through its own consumer group, so every process running
// the service observes every event.
type RedisEventBus struct {
	client *redis.Client
	stream string
	group  string
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]eventbus.HandlerFunc
	started  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates a Redis-backed event bus on the stream "<prefix>events".
func NewWithRedis(client *redis.Client, prefix string, logger *slog.Logger) (*RedisEventBus, error) {
	if client == nil {
		return nil, fmt.Errorf("redis event bus: client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		client:   client,
		stream:   prefix + "events",
		group:    prefix + "group:" + uuid.NewString(),
		logger:   logger.With("bus", "redis"),
		handlers: make(map[string][]eventbus.HandlerFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
	// "$" delivers only events emitted after this instance started.
	if err := client.XGroupCreateMkStream(ctx, b.stream, b.group, "$").Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("redis event bus: create group: %w", err)
	}
	return b, nil
}

// Emit appends the event to the stream.
func (b *RedisEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	raw, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"event": string(raw)},
	}).Err()
	if err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type)
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	return nil
}

// Register adds handler for eventType and starts the stream reader on first use.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	start := !b.started
	b.started = true
	b.mu.Unlock()

	if start {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.readLoop()
		}()
	}
	b.logger.Debug("handler registered", "event_type", eventType, "group", b.group)
}

// Close stops the reader and removes this instance's consumer group.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.XGroupDestroy(context.Background(), b.stream, b.group).Err()
}

func (b *RedisEventBus) readLoop() {
	for {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: "reader",
			Streams:  []string{b.stream, ">"},
			Count:    32,
			Block:    2 * time.Second,
		}).Result()
		if b.ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "error", err, "stream", b.stream)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, stream := range res {
			for _, msg := range stream.Messages {
				b.handle(msg)
			}
		}
	}
}

func (b *RedisEventBus) handle(msg redis.XMessage) {
	defer func() {
		if err := b.client.XAck(b.ctx, b.stream, b.group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	event, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("dropping malformed event", "error", err, "msg_id", msg.ID)
		return
	}

	b.mu.RLock()
	var handlers []eventbus.HandlerFunc
	for registered, hs := range b.handlers {
		if matches(registered, event.Type) {
			handlers = append(handlers, hs...)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		if !dispatch(b.ctx, b.logger, h, event) {
			b.pushToDLQ(msg.Values)
		}
	}
}

// pushToDLQ keeps failed deliveries for inspection.
func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlq := b.stream + "-DLQ"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlq, MaxLen: streamMaxLen, Approx: true, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
