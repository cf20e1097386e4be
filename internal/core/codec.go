package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed marks a stream frame that is not a usable door event.
var ErrMalformed = errors.New("malformed payload")

// Message is the result of parsing one stream frame: an EventMessage, a
// PingMessage or an InvalidMessage.
type Message interface {
	message()
}

type EventMessage struct {
	Event DoorEvent
}

// PingMessage is a liveness frame. It carries no application data.
type PingMessage struct{}

type InvalidMessage struct {
	Err error
}

func (EventMessage) message()   {}
func (PingMessage) message()    {}
func (InvalidMessage) message() {}

type pingFrame struct {
	Type string `json:"type"`
	TS   string `json:"ts"`
}

// Parse decodes a stream frame. A frame without a type, or with type "ping",
// is a ping.
func Parse(raw string) Message {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return InvalidMessage{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	if fields == nil {
		return InvalidMessage{Err: fmt.Errorf("%w: not an object", ErrMalformed)}
	}

	var typ string
	if err := decodeField(fields, "type", &typ, false); err != nil {
		return InvalidMessage{Err: err}
	}

	if typ == "" || typ == "ping" {
		return PingMessage{}
	}

	kind, err := ParseKind(typ)
	if err != nil {
		return InvalidMessage{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	event := DoorEvent{Type: kind}

	for _, f := range []struct {
		key      string
		dst      any
		required bool
	}{
		{"id", &event.ID, true},
		{"triggeredAt", &event.TriggeredAt, true},
		{"name", &event.Name, true},
		{"idFrom", &event.IDFrom, false},
		{"nameFrom", &event.NameFrom, false},
	} {
		if err := decodeField(fields, f.key, f.dst, f.required); err != nil {
			return InvalidMessage{Err: err}
		}
	}

	return EventMessage{Event: event}
}

func decodeField(fields map[string]json.RawMessage, key string, dst any, required bool) error {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if required {
			return fmt.Errorf("%w: %s is required", ErrMalformed, key)
		}
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s has the wrong type", ErrMalformed, key)
	}

	return nil
}

// Encode serializes an event for the wire.
func Encode(event DoorEvent) ([]byte, error) {
	return json.Marshal(event)
}

// EncodePing builds the keepalive frame for time ts.
func EncodePing(ts time.Time) []byte {
	b, _ := json.Marshal(pingFrame{Type: "ping", TS: ts.UTC().Format(TimeLayout)})
	return b
}
