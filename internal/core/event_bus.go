package core

import (
	"fmt"
	"sync"

	"github.com/timada-org/doorphone/internal/logger"
	"github.com/timada-org/doorphone/internal/metrics"
	"go.uber.org/zap"
)

// Listener receives events published on a topic it subscribed to.
type Listener func(event DoorEvent) error

// Handle identifies a subscription. The zero Handle matches nothing.
type Handle struct {
	topic Topic
	id    uint64
}

type registration struct {
	id       uint64
	listener Listener
}

type EventBusOptions struct {
	Logger *zap.Logger
}

// EventBus is the process-wide registry of topic listeners. Listener slices
// are copied on write, so a publish iterates a snapshot that later
// subscribe/unsubscribe calls never touch.
type EventBus struct {
	mux       sync.RWMutex
	listeners map[Topic][]registration
	nextID    uint64
	logger    *zap.Logger
}

func NewEventBus(options *EventBusOptions) *EventBus {
	bus := &EventBus{
		listeners: make(map[Topic][]registration),
		logger:    zap.NewNop(),
	}

	if options != nil {
		bus.logger = logger.OrNop(options.Logger)
	}

	return bus
}

func (bus *EventBus) Subscribe(topic Topic, listener Listener) Handle {
	bus.mux.Lock()
	defer bus.mux.Unlock()

	bus.nextID++
	reg := registration{id: bus.nextID, listener: listener}

	current := bus.listeners[topic]
	next := make([]registration, len(current), len(current)+1)
	copy(next, current)
	bus.listeners[topic] = append(next, reg)

	return Handle{topic: topic, id: reg.id}
}

// Unsubscribe removes the listener behind h. Unknown or already removed
// handles are ignored.
func (bus *EventBus) Unsubscribe(h Handle) {
	bus.mux.Lock()
	defer bus.mux.Unlock()

	current := bus.listeners[h.topic]
	for i, reg := range current {
		if reg.id != h.id {
			continue
		}

		if len(current) == 1 {
			delete(bus.listeners, h.topic)
			return
		}

		next := make([]registration, 0, len(current)-1)
		next = append(next, current[:i]...)
		bus.listeners[h.topic] = append(next, current[i+1:]...)
		return
	}
}

// Publish invokes every listener registered on topic, in registration order,
// before returning. A failing listener is logged and does not stop delivery
// to the others.
func (bus *EventBus) Publish(topic Topic, event DoorEvent) {
	bus.mux.RLock()
	snapshot := bus.listeners[topic]
	bus.mux.RUnlock()

	metrics.EventsPublished.WithLabelValues(topic.String()).Inc()

	for _, reg := range snapshot {
		if err := bus.deliver(reg.listener, event); err != nil {
			metrics.ListenerFailures.WithLabelValues(topic.String()).Inc()
			bus.logger.Warn("listener failed",
				zap.String("topic", topic.String()),
				zap.Int64("door_id", event.ID),
				zap.Error(err),
			)
		}
	}
}

func (bus *EventBus) deliver(listener Listener, event DoorEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()

	return listener(event)
}

// Len returns the number of listeners on topic.
func (bus *EventBus) Len(topic Topic) int {
	bus.mux.RLock()
	defer bus.mux.RUnlock()

	return len(bus.listeners[topic])
}

// Count returns the number of listeners across all topics.
func (bus *EventBus) Count() int {
	bus.mux.RLock()
	defer bus.mux.RUnlock()

	n := 0
	for _, regs := range bus.listeners {
		n += len(regs)
	}

	return n
}
