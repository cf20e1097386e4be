package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/doorphone/internal/core"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/internal/notify"
)

func ptr[T any](v T) *T {
	return &v
}

var tokyo = time.FixedZone("JST", 9*60*60)

func TestBuildEmbed(t *testing.T) {
	target := door.Door{ID: 7, Name: "Back door"}

	t.Run("door press", func(t *testing.T) {
		embed := notify.BuildEmbed(door.Door{ID: 0, Name: "Dashboard"}, core.DoorEvent{
			ID:          1,
			Name:        "Front door",
			TriggeredAt: "2024-03-01T09:30:00.000Z",
			Type:        core.KindDoor,
		}, tokyo)

		assert.Equal(t, "🔔 Incoming call", embed.Title)
		assert.Equal(t, 0xf97316, embed.Color)
		assert.Equal(t, "Front door was pressed at 2024/03/01 18:30:00.", embed.Description)
		assert.Equal(t, "Front door", embed.Fields[0].Value)
		assert.Equal(t, "Dashboard", embed.Fields[1].Value)
		assert.Equal(t, "2024/03/01 18:30:00", embed.Fields[2].Value)
		assert.Equal(t, "2024-03-01T09:30:00.000Z", embed.Timestamp)
	})

	t.Run("record", func(t *testing.T) {
		embed := notify.BuildEmbed(target, core.DoorEvent{
			ID:          7,
			IDFrom:      ptr(int64(3)),
			NameFrom:    ptr(" Reception "),
			Name:        "Back door",
			TriggeredAt: "2024-03-01T09:30:00.000Z",
			Type:        core.KindRecord,
		}, tokyo)

		assert.Equal(t, "🎙️ Incoming call", embed.Title)
		assert.Equal(t, 0xa855f7, embed.Color)
		assert.Equal(t, "Reception sent a recording to Back door at 2024/03/01 18:30:00.", embed.Description)
	})

	t.Run("source fallbacks", func(t *testing.T) {
		dash := notify.BuildEmbed(target, core.DoorEvent{ID: 7, Type: core.KindDash, TriggeredAt: "x"}, tokyo)
		assert.Equal(t, "Dashboard", dash.Fields[0].Value)
		assert.Equal(t, "x", dash.Fields[2].Value)

		byID := notify.BuildEmbed(target, core.DoorEvent{ID: 7, IDFrom: ptr(int64(3)), Type: core.KindRecord}, tokyo)
		assert.Equal(t, "ID 3", byID.Fields[0].Value)

		unknown := notify.BuildEmbed(target, core.DoorEvent{ID: 7, Type: core.KindRecord}, tokyo)
		assert.Equal(t, core.UnknownSourceName, unknown.Fields[0].Value)
	})
}

func TestDiscordNotify(t *testing.T) {
	ctx := context.Background()
	event := core.DoorEvent{ID: 7, Name: "Back door", TriggeredAt: "2024-03-01T09:30:00.000Z", Type: core.KindDash}

	t.Run("posts an embed", func(t *testing.T) {
		var got map[string][]notify.Embed
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		d := notify.NewDiscord(notify.DiscordOptions{Location: tokyo})
		err := d.Notify(ctx, door.Door{ID: 7, Name: "Back door", WebhookURL: ts.URL}, event)
		require.NoError(t, err)

		require.Len(t, got["embeds"], 1)
		assert.Equal(t, "Dashboard called Back door at 2024/03/01 18:30:00.", got["embeds"][0].Description)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var hits atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer ts.Close()

		d := notify.NewDiscord(notify.DiscordOptions{Retries: 1, Backoff: time.Millisecond})
		err := d.Notify(ctx, door.Door{ID: 7, WebhookURL: ts.URL}, event)
		assert.Error(t, err)
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var hits atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		d := notify.NewDiscord(notify.DiscordOptions{Retries: 2, Backoff: time.Millisecond})
		err := d.Notify(ctx, door.Door{ID: 7, WebhookURL: ts.URL}, event)
		assert.Error(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("no webhook", func(t *testing.T) {
		d := notify.NewDiscord(notify.DiscordOptions{})
		assert.NoError(t, d.Notify(ctx, door.Door{ID: 7, WebhookURL: "  "}, event))
	})
}
