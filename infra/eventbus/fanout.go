package eventbus

import (
	"context"
	"errors"

	"github.com/yieldvault/ledger/pkg/eventbus"
)

// FanoutEventBus emits every event to a primary bus and a set of sinks.
// Handlers are only registered on the primary; sinks are outbound streams.
type FanoutEventBus struct {
	primary eventbus.Bus
	sinks   []eventbus.Bus
}

// NewFanout returns a bus that delivers to primary and mirrors to sinks.
func NewFanout(primary eventbus.Bus, sinks ...eventbus.Bus) *FanoutEventBus {
	return &FanoutEventBus{primary: primary, sinks: sinks}
}

// Emit publishes to the primary then to each sink. Sink failures do not stop
// delivery to the remaining sinks; they are joined into the returned error.
func (f *FanoutEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	errs := []error{f.primary.Emit(ctx, event)}
	for _, s := range f.sinks {
		errs = append(errs, s.Emit(ctx, event))
	}
	return errors.Join(errs...)
}

// Register subscribes handler on the primary bus.
func (f *FanoutEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	f.primary.Register(eventType, handler)
}

var _ eventbus.Bus = (*FanoutEventBus)(nil)
