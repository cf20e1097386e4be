package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"
	"github.com/timada-org/doorphone/internal/core"
	"github.com/timada-org/doorphone/internal/door"
)

const (
	colorDoor   = 0xf97316
	colorRecord = 0xa855f7

	timeLabelLayout = "2006/01/02 15:04:05"
)

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Footer      EmbedFooter  `json:"footer"`
	Timestamp   string       `json:"timestamp"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

type DiscordOptions struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
	// Location is used for the human readable time label. Defaults to
	// Asia/Tokyo.
	Location *time.Location
}

// Discord posts door events as embeds to a door's Discord webhook.
type Discord struct {
	client   *httpclient.Client
	location *time.Location
}

func NewDiscord(options DiscordOptions) *Discord {
	if options.Timeout <= 0 {
		options.Timeout = 10 * time.Second
	}

	if options.Location == nil {
		options.Location = defaultLocation()
	}

	backoff := heimdall.NewConstantBackoff(options.Backoff, 5*time.Millisecond)

	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(options.Timeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(options.Retries),
	)

	return &Discord{
		client:   client,
		location: options.Location,
	}
}

func (d *Discord) Notify(ctx context.Context, target door.Door, event core.DoorEvent) error {
	url := strings.TrimSpace(target.WebhookURL)
	if url == "" {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Embeds: []Embed{BuildEmbed(target, event, d.location)},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord webhook for door %d: %w", target.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	if err != nil {
		return fmt.Errorf("discord webhook for door %d: %w", target.ID, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("discord webhook for door %d: %s", target.ID, resp.Status)
	}

	return nil
}

// BuildEmbed renders event as seen by target.
func BuildEmbed(target door.Door, event core.DoorEvent, loc *time.Location) Embed {
	icon, color := "🔔", colorDoor
	if event.Type == core.KindRecord {
		icon, color = "🎙️", colorRecord
	}

	timeLabel := formatTimeLabel(event.TriggeredAt, loc)
	source := sourceName(event)

	return Embed{
		Title:       icon + " Incoming call",
		Description: describe(source, target.Name, event.Type, timeLabel),
		Color:       color,
		Fields: []EmbedField{
			{Name: "From", Value: source, Inline: true},
			{Name: "To", Value: target.Name, Inline: true},
			{Name: "Time", Value: timeLabel, Inline: true},
		},
		Footer:    EmbedFooter{Text: "DoorPhone notification"},
		Timestamp: event.TriggeredAt,
	}
}

func sourceName(event core.DoorEvent) string {
	if event.Type == core.KindDoor || event.Type == core.KindOpened {
		return event.Name
	}

	if event.NameFrom != nil {
		if name := strings.TrimSpace(*event.NameFrom); name != "" {
			return name
		}
	}

	if event.Type == core.KindDash {
		return "Dashboard"
	}

	if event.IDFrom != nil {
		return fmt.Sprintf("ID %d", *event.IDFrom)
	}

	return core.UnknownSourceName
}

func describe(source, target string, kind core.Kind, at string) string {
	switch kind {
	case core.KindDoor:
		return fmt.Sprintf("%s was pressed at %s.", source, at)
	case core.KindDash:
		return fmt.Sprintf("%s called %s at %s.", source, target, at)
	case core.KindRecord:
		return fmt.Sprintf("%s sent a recording to %s at %s.", source, target, at)
	case core.KindOpened:
		return fmt.Sprintf("%s was opened at %s.", source, at)
	default:
		return fmt.Sprintf("%s did something at %s.", source, at)
	}
}

func formatTimeLabel(iso string, loc *time.Location) string {
	t, err := time.Parse(core.TimeLayout, iso)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, iso)
		if err != nil {
			return iso
		}
	}

	return t.In(loc).Format(timeLabelLayout)
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}

	return loc
}
