package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/timada-org/doorphone/internal/logger"
	"go.uber.org/zap"
)

// DefaultKeepalive is how often a subscription writes a ping frame.
const DefaultKeepalive = 20 * time.Second

// Stream is the outbound side of one streaming connection.
type Stream interface {
	Send(data []byte) error
	Close() error
}

type SubscriptionOptions struct {
	Keepalive time.Duration
	Clock     clock.Clock
	Logger    *zap.Logger
}

// Subscription binds one stream to the bus for a single door. It forwards
// events targeting that door and pings the stream on a fixed interval until
// closed.
type Subscription struct {
	doorID  int64
	bus     *EventBus
	stream  Stream
	ticker  *clock.Ticker
	logger  *zap.Logger

	mux     sync.Mutex
	handles []Handle
	closed  bool

	once sync.Once
	done chan struct{}
}

func Subscribe(bus *EventBus, doorID int64, stream Stream, options SubscriptionOptions) *Subscription {
	if options.Keepalive <= 0 {
		options.Keepalive = DefaultKeepalive
	}

	if options.Clock == nil {
		options.Clock = clock.New()
	}

	s := &Subscription{
		doorID: doorID,
		bus:    bus,
		stream: stream,
		ticker: options.Clock.Ticker(options.Keepalive),
		logger: logger.OrNop(options.Logger).With(zap.Int64("door_id", doorID)),
		done:   make(chan struct{}),
	}

	// forward may close s before every topic is registered; a handle that
	// arrives after teardown is released here.
	for _, kind := range PressedKinds {
		h := bus.Subscribe(kind.Topic(), s.forward)

		s.mux.Lock()
		if s.closed {
			s.mux.Unlock()
			bus.Unsubscribe(h)
			continue
		}
		s.handles = append(s.handles, h)
		s.mux.Unlock()
	}

	go s.keepalive()

	return s
}

func (s *Subscription) DoorID() int64 {
	return s.doorID
}

// Done is closed once the subscription has released its resources.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) forward(event DoorEvent) error {
	if event.ID != s.doorID {
		return nil
	}

	frame, err := Encode(event)
	if err != nil {
		return err
	}

	if err := s.stream.Send(frame); err != nil {
		s.logger.Debug("stream write failed, closing", zap.Error(err))
		s.Close()
	}

	return nil
}

func (s *Subscription) keepalive() {
	for {
		select {
		case <-s.done:
			return
		case now := <-s.ticker.C:
			if err := s.stream.Send(EncodePing(now)); err != nil {
				s.logger.Debug("keepalive write failed, closing", zap.Error(err))
				s.Close()
				return
			}
		}
	}
}

// Close stops the keepalive, detaches from the bus and closes the stream, in
// that order. Each step runs even if an earlier one fails. Close is safe to
// call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mux.Lock()
		s.closed = true
		handles := s.handles
		s.handles = nil
		s.mux.Unlock()

		s.step("stop keepalive", func() error {
			s.ticker.Stop()
			return nil
		})

		for _, h := range handles {
			h := h
			s.step("unsubscribe", func() error {
				s.bus.Unsubscribe(h)
				return nil
			})
		}

		s.step("close stream", s.stream.Close)

		close(s.done)
	})
}

func (s *Subscription) step(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscription teardown failed", zap.String("step", name), zap.Error(fmt.Errorf("%v", r)))
		}
	}()

	if err := fn(); err != nil {
		s.logger.Warn("subscription teardown failed", zap.String("step", name), zap.Error(err))
	}
}
