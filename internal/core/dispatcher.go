package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/internal/logger"
	"github.com/timada-org/doorphone/internal/metrics"
	"go.uber.org/zap"
)

// UnknownSourceName stands in for a source door whose name could not be
// resolved.
const UnknownSourceName = "Unknown"

const defaultNotifyTimeout = 10 * time.Second

type DoorRegistry interface {
	Get(ctx context.Context, id int64) (*door.Door, error)
}

// Notifier delivers an event to a door's external endpoint.
type Notifier interface {
	Notify(ctx context.Context, target door.Door, event DoorEvent) error
}

type DispatcherOptions struct {
	Bus           *EventBus
	Registry      DoorRegistry
	Notifier      Notifier
	Clock         clock.Clock
	Logger        *zap.Logger
	NotifyTimeout time.Duration
}

// Dispatcher turns door actions into published events. Notifications run in
// the background and never delay or fail the action.
type Dispatcher struct {
	bus           *EventBus
	registry      DoorRegistry
	notifier      Notifier
	clock         clock.Clock
	logger        *zap.Logger
	notifyTimeout time.Duration
	wg            sync.WaitGroup
}

func NewDispatcher(options DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		bus:           options.Bus,
		registry:      options.Registry,
		notifier:      options.Notifier,
		clock:         options.Clock,
		logger:        logger.OrNop(options.Logger),
		notifyTimeout: options.NotifyTimeout,
	}

	if d.clock == nil {
		d.clock = clock.New()
	}

	if d.notifyTimeout <= 0 {
		d.notifyTimeout = defaultNotifyTimeout
	}

	return d
}

type PressRequest struct {
	DoorID int64
	// Kind defaults to KindDoor when empty.
	Kind       Kind
	SourceID   *int64
	SourceName string
}

// Press publishes a press of the given kind on door DoorID.
//
// A door press notifies the dashboard; dash and record presses notify the
// pressed door itself.
func (d *Dispatcher) Press(ctx context.Context, req PressRequest) (DoorEvent, error) {
	kind := req.Kind
	if kind == "" {
		kind = KindDoor
	}

	if !kind.Pressed() {
		return DoorEvent{}, &door.ValidationError{Field: "source", Message: fmt.Sprintf("Invalid source %q", kind)}
	}

	target, err := d.registry.Get(ctx, req.DoorID)
	if err != nil {
		return DoorEvent{}, fmt.Errorf("resolve door %d: %w", req.DoorID, err)
	}

	event := NewDoorEvent(kind, *target, d.clock.Now())
	event.IDFrom = req.SourceID
	event.NameFrom = d.sourceName(ctx, req)

	d.bus.Publish(kind.Topic(), event)

	notifyTarget := target
	if kind == KindDoor {
		notifyTarget, err = d.registry.Get(ctx, door.DashboardID)
		if err != nil {
			d.logger.Warn("failed to resolve dashboard", zap.Error(err))
		}
	}

	d.notify(ctx, notifyTarget, event)

	return event, nil
}

// Open publishes that door doorID was opened and notifies that door.
func (d *Dispatcher) Open(ctx context.Context, doorID int64) (DoorEvent, error) {
	target, err := d.registry.Get(ctx, doorID)
	if err != nil {
		return DoorEvent{}, fmt.Errorf("resolve door %d: %w", doorID, err)
	}

	event := NewDoorEvent(KindOpened, *target, d.clock.Now())

	d.bus.Publish(KindOpened.Topic(), event)
	d.notify(ctx, target, event)

	return event, nil
}

// Wait blocks until in-flight notifications have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) sourceName(ctx context.Context, req PressRequest) *string {
	if name := strings.TrimSpace(req.SourceName); name != "" {
		return &name
	}

	if req.SourceID == nil {
		return nil
	}

	source, err := d.registry.Get(ctx, *req.SourceID)
	if err != nil {
		d.logger.Warn("failed to resolve sender door name", zap.Int64("source_id", *req.SourceID), zap.Error(err))
		name := UnknownSourceName
		return &name
	}

	return &source.Name
}

func (d *Dispatcher) notify(ctx context.Context, target *door.Door, event DoorEvent) {
	if d.notifier == nil || target == nil || !target.HasWebhook() {
		return
	}

	d.wg.Add(1)
	go func(target door.Door) {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.notifyTimeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, target, event); err != nil {
			metrics.Notifications.WithLabelValues("webhook", "error").Inc()
			d.logger.Error("failed to send notification",
				zap.Int64("door_id", target.ID),
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
			return
		}

		metrics.Notifications.WithLabelValues("webhook", "ok").Inc()
	}(*target)
}
