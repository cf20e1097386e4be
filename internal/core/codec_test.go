package core_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/doorphone/internal/core"
)

func TestParse(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"not json",
			"null",
			"[]",
			`{"type":"door"}`,
			`{"id":"1","triggeredAt":"t","name":"n","type":"door"}`,
			`{"id":1.5,"triggeredAt":"t","name":"n","type":"door"}`,
			`{"id":1,"triggeredAt":2,"name":"n","type":"door"}`,
			`{"id":1,"triggeredAt":"t","name":null,"type":"door"}`,
			`{"id":1,"triggeredAt":"t","name":"n","type":"knock"}`,
			`{"id":1,"triggeredAt":"t","name":"n","type":"door","idFrom":"3"}`,
			`{"type":7}`,
		} {
			msg, ok := core.Parse(raw).(core.InvalidMessage)
			require.True(t, ok, raw)
			assert.True(t, errors.Is(msg.Err, core.ErrMalformed), raw)
		}
	})

	t.Run("ping", func(t *testing.T) {
		for _, raw := range []string{
			`{}`,
			`{"type":"ping"}`,
			`{"type":""}`,
			`{"type":null}`,
			`{"type":"ping","ts":"2024-01-01T00:00:00.000Z"}`,
		} {
			assert.Equal(t, core.PingMessage{}, core.Parse(raw), raw)
		}
	})

	t.Run("event", func(t *testing.T) {
		msg, ok := core.Parse(`{"id":1,"triggeredAt":"t","name":"n","type":"door"}`).(core.EventMessage)
		require.True(t, ok)
		assert.Equal(t, core.DoorEvent{ID: 1, TriggeredAt: "t", Name: "n", Type: core.KindDoor}, msg.Event)
	})

	t.Run("event with source", func(t *testing.T) {
		msg, ok := core.Parse(`{"id":7,"idFrom":3,"triggeredAt":"t","name":"Back","nameFrom":"Front","type":"record"}`).(core.EventMessage)
		require.True(t, ok)
		require.NotNil(t, msg.Event.IDFrom)
		require.NotNil(t, msg.Event.NameFrom)
		assert.Equal(t, int64(3), *msg.Event.IDFrom)
		assert.Equal(t, "Front", *msg.Event.NameFrom)
		assert.Equal(t, core.KindRecord, msg.Event.Type)
	})

	t.Run("null optional fields", func(t *testing.T) {
		msg, ok := core.Parse(`{"id":7,"idFrom":null,"triggeredAt":"t","name":"n","nameFrom":null,"type":"dash"}`).(core.EventMessage)
		require.True(t, ok)
		assert.Nil(t, msg.Event.IDFrom)
		assert.Nil(t, msg.Event.NameFrom)
	})
}

func TestEncode(t *testing.T) {
	from := int64(3)
	name := "Front"
	event := core.DoorEvent{ID: 7, IDFrom: &from, TriggeredAt: "t", Name: "Back", NameFrom: &name, Type: core.KindRecord}

	b, err := core.Encode(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"idFrom":3,"triggeredAt":"t","name":"Back","nameFrom":"Front","type":"record"}`, string(b))

	msg, ok := core.Parse(string(b)).(core.EventMessage)
	require.True(t, ok)
	assert.Equal(t, event, msg.Event)

	b, err = core.Encode(core.DoorEvent{ID: 1, TriggeredAt: "t", Name: "n", Type: core.KindDoor})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"triggeredAt":"t","name":"n","type":"door"}`, string(b))
}

func TestEncodePing(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	frame := core.EncodePing(ts)

	var got map[string]string
	require.NoError(t, json.Unmarshal(frame, &got))
	assert.Equal(t, map[string]string{"type": "ping", "ts": "2024-03-01T00:30:00.000Z"}, got)

	assert.Equal(t, core.PingMessage{}, core.Parse(string(frame)))
}
