package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/yieldvault/ledger/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event eventbus.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	out, err := json.Marshal(envelope{Type: event.Type, Payload: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return out, nil
}

func decodeEnvelope(raw []byte) (eventbus.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return eventbus.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return eventbus.Event{}, fmt.Errorf("envelope has no event type")
	}
	var evt eventbus.Event
	if err := json.Unmarshal(env.Payload, &evt); err != nil {
		return eventbus.Event{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	evt.Type = env.Type
	return evt, nil
}

// matches reports whether a handler registered for registered receives eventType.
func matches(registered, eventType string) bool {
	return registered == eventbus.All || registered == eventType
}
