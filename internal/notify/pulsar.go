package notify

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/timada-org/doorphone/internal/core"
	"github.com/timada-org/doorphone/internal/logger"
	"github.com/timada-org/doorphone/internal/metrics"
	"go.uber.org/zap"
)

// MirrorTopics are the bus topics copied to the broker.
var MirrorTopics = []core.Topic{
	core.TopicDoorPressed,
	core.TopicDashPressed,
	core.TopicRecordPressed,
	core.TopicDoorOpened,
}

// Producer is the part of pulsar.Producer the mirror needs.
type Producer interface {
	SendAsync(ctx context.Context, msg *pulsar.ProducerMessage, callback func(pulsar.MessageID, *pulsar.ProducerMessage, error))
	Flush() error
	Close()
}

type MirrorOptions struct {
	URL    string
	Topic  string
	Name   string
	Logger *zap.Logger
}

// Mirror copies every bus event to a Pulsar topic. It is fire and forget: a
// full queue or a broker error drops the event and never reaches publishers.
type Mirror struct {
	client   pulsar.Client
	producer Producer
	logger   *zap.Logger
	handles  []core.Handle
	bus      *core.EventBus
}

func NewMirror(options MirrorOptions) (*Mirror, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: options.URL,
	})
	if err != nil {
		return nil, err
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic:                   options.Topic,
		Name:                    options.Name,
		DisableBlockIfQueueFull: true,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	m := NewMirrorWithProducer(producer, options.Logger)
	m.client = client

	return m, nil
}

func NewMirrorWithProducer(producer Producer, log *zap.Logger) *Mirror {
	return &Mirror{
		producer: producer,
		logger:   logger.OrNop(log),
	}
}

// Attach starts mirroring bus. It must be called at most once.
func (m *Mirror) Attach(bus *core.EventBus) {
	m.bus = bus

	for _, topic := range MirrorTopics {
		topic := topic
		m.handles = append(m.handles, bus.Subscribe(topic, func(event core.DoorEvent) error {
			return m.send(topic, event)
		}))
	}
}

func (m *Mirror) send(topic core.Topic, event core.DoorEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &pulsar.ProducerMessage{
		Payload: payload,
		Key:     strconv.FormatInt(event.ID, 10),
		Properties: map[string]string{
			"topic": topic.String(),
		},
	}

	m.producer.SendAsync(context.Background(), msg, func(_ pulsar.MessageID, _ *pulsar.ProducerMessage, err error) {
		if err != nil {
			metrics.Notifications.WithLabelValues("pulsar", "error").Inc()
			m.logger.Warn("failed to mirror event",
				zap.String("topic", topic.String()),
				zap.Int64("door_id", event.ID),
				zap.Error(err),
			)
			return
		}

		metrics.Notifications.WithLabelValues("pulsar", "ok").Inc()
	})

	return nil
}

// Close detaches from the bus, flushes pending messages and closes the
// producer.
func (m *Mirror) Close() {
	if m.bus != nil {
		for _, h := range m.handles {
			m.bus.Unsubscribe(h)
		}
		m.handles = nil
	}

	if err := m.producer.Flush(); err != nil {
		m.logger.Warn("failed to flush mirror", zap.Error(err))
	}

	m.producer.Close()

	if m.client != nil {
		m.client.Close()
	}
}
