package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6/httpclient"
	"github.com/timada-org/doorphone/internal/core"
)

var ErrStreamClosed = errors.New("event stream closed by server")

// Kind is the kind of a door event as sent on the wire.
type Kind string

const (
	KindDoor   Kind = "door"
	KindDash   Kind = "dash"
	KindRecord Kind = "record"
	KindOpened Kind = "opened"
)

// Event is a door event received from a stream.
type Event struct {
	ID          int64   `json:"id"`
	IDFrom      *int64  `json:"idFrom,omitempty"`
	TriggeredAt string  `json:"triggeredAt"`
	Name        string  `json:"name"`
	NameFrom    *string `json:"nameFrom,omitempty"`
	Type        Kind    `json:"type"`
}

type ClientOptions struct {
	URL     string
	Timeout time.Duration
}

// Client talks to a doorphone server.
type Client struct {
	url    string
	client *httpclient.Client
	stream *http.Client
}

func New(options ClientOptions) (*Client, error) {
	if options.URL == "" {
		return nil, errors.New("client: url is required")
	}

	if options.Timeout <= 0 {
		options.Timeout = 10 * time.Second
	}

	return &Client{
		url: strings.TrimSuffix(options.URL, "/"),
		// Actions are not idempotent: a retried press would publish twice.
		client: httpclient.NewClient(
			httpclient.WithHTTPTimeout(options.Timeout),
			httpclient.WithRetryCount(0),
		),
		stream: &http.Client{},
	}, nil
}

type PressOptions struct {
	Source     Kind   `json:"source,omitempty"`
	IDFrom     *int64 `json:"idFrom,omitempty"`
	CustomName string `json:"customName,omitempty"`
}

// Press presses door doorID. It is sent once and never retried.
func (c *Client) Press(ctx context.Context, doorID int64, options PressOptions) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return err
	}

	return c.post(ctx, fmt.Sprintf("/api/doors/%d/press", doorID), payload)
}

// Open reports door doorID as opened.
func (c *Client) Open(ctx context.Context, doorID int64) error {
	return c.post(ctx, fmt.Sprintf("/api/doors/%d/opened", doorID), nil)
}

func (c *Client) post(ctx context.Context, path string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", req.Method, path, resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}

// Watch streams the events of door doorID to handler until ctx is done or
// the server ends the stream. Keepalives and frames that fail to decode are
// skipped.
func (c *Client) Watch(ctx context.Context, doorID int64, handler func(Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/doors/%d/events", c.url, doorID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("watch door %d: %s", doorID, resp.Status)
	}

	err = readEvents(resp.Body, func(data string) {
		if msg, ok := core.Parse(data).(core.EventMessage); ok {
			handler(fromCore(msg.Event))
		}
	})

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}

func readEvents(r io.Reader, fn func(data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var data []string
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) > 0 {
				fn(strings.Join(data, "\n"))
				data = data[:0]
			}
			continue
		}

		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(value, " "))
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return ErrStreamClosed
}

func fromCore(e core.DoorEvent) Event {
	return Event{
		ID:          e.ID,
		IDFrom:      e.IDFrom,
		TriggeredAt: e.TriggeredAt,
		Name:        e.Name,
		NameFrom:    e.NameFrom,
		Type:        Kind(e.Type),
	}
}
