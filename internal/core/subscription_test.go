package core_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/doorphone/internal/core"
)

type fakeStream struct {
	mux      sync.Mutex
	frames   []string
	sendErr  error
	closeErr error
	closed   int
}

func (s *fakeStream) Send(data []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.sendErr != nil {
		return s.sendErr
	}

	s.frames = append(s.frames, string(data))
	return nil
}

func (s *fakeStream) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.closed++
	return s.closeErr
}

func (s *fakeStream) messages() (events []core.DoorEvent, pings int) {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, f := range s.frames {
		switch msg := core.Parse(f).(type) {
		case core.EventMessage:
			events = append(events, msg.Event)
		case core.PingMessage:
			pings++
		}
	}

	return events, pings
}

func (s *fakeStream) closeCount() int {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.closed
}

func TestSubscriptionFilter(t *testing.T) {
	bus := core.NewEventBus(nil)
	stream := &fakeStream{}

	sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: clock.NewMock()})
	defer sub.Close()

	assert.Equal(t, 1, bus.Len(core.TopicDoorPressed))
	assert.Equal(t, 1, bus.Len(core.TopicDashPressed))
	assert.Equal(t, 1, bus.Len(core.TopicRecordPressed))
	assert.Equal(t, 0, bus.Len(core.TopicDoorOpened))

	bus.Publish(core.TopicDoorPressed, core.DoorEvent{ID: 5, Name: "Front", TriggeredAt: "t", Type: core.KindDoor})
	bus.Publish(core.TopicDoorPressed, core.DoorEvent{ID: 6, Name: "Back", TriggeredAt: "t", Type: core.KindDoor})
	bus.Publish(core.TopicRecordPressed, core.DoorEvent{ID: 5, Name: "Front", TriggeredAt: "t", Type: core.KindRecord})
	bus.Publish(core.TopicDoorOpened, core.DoorEvent{ID: 5, Name: "Front", TriggeredAt: "t", Type: core.KindOpened})

	events, pings := stream.messages()
	require.Len(t, events, 2)
	assert.Equal(t, 0, pings)
	assert.Equal(t, core.KindDoor, events[0].Type)
	assert.Equal(t, core.KindRecord, events[1].Type)
	for _, e := range events {
		assert.Equal(t, int64(5), e.ID)
	}
}

func TestSubscriptionClose(t *testing.T) {
	t.Run("detaches and stops writing", func(t *testing.T) {
		bus := core.NewEventBus(nil)
		stream := &fakeStream{}

		sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: clock.NewMock()})
		sub.Close()
		sub.Close()

		<-sub.Done()
		assert.Equal(t, 0, bus.Count())
		assert.Equal(t, 1, stream.closeCount())

		bus.Publish(core.TopicDoorPressed, core.DoorEvent{ID: 5, Name: "Front", TriggeredAt: "t", Type: core.KindDoor})

		events, _ := stream.messages()
		assert.Empty(t, events)
	})

	t.Run("no leak across reconnects", func(t *testing.T) {
		bus := core.NewEventBus(nil)

		for i := 0; i < 100; i++ {
			sub := core.Subscribe(bus, int64(i%3), &fakeStream{}, core.SubscriptionOptions{Clock: clock.NewMock()})
			assert.Equal(t, 3, bus.Count())
			sub.Close()
		}

		assert.Equal(t, 0, bus.Count())
	})

	t.Run("stream close failure still detaches", func(t *testing.T) {
		bus := core.NewEventBus(nil)
		stream := &fakeStream{closeErr: errors.New("already gone")}

		sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: clock.NewMock()})
		sub.Close()

		<-sub.Done()
		assert.Equal(t, 0, bus.Count())
	})

	t.Run("write failure closes", func(t *testing.T) {
		bus := core.NewEventBus(nil)
		stream := &fakeStream{sendErr: errors.New("broken pipe")}

		sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: clock.NewMock()})
		other := core.Subscribe(bus, 5, &fakeStream{}, core.SubscriptionOptions{Clock: clock.NewMock()})
		defer other.Close()

		bus.Publish(core.TopicDashPressed, core.DoorEvent{ID: 5, Name: "Front", TriggeredAt: "t", Type: core.KindDash})

		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatal("subscription not closed after write failure")
		}

		assert.Equal(t, 3, bus.Count())
		assert.Equal(t, 1, stream.closeCount())
	})
}

func TestSubscriptionKeepalive(t *testing.T) {
	t.Run("one ping per interval", func(t *testing.T) {
		bus := core.NewEventBus(nil)
		stream := &fakeStream{}
		mock := clock.NewMock()

		sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Keepalive: 20 * time.Second, Clock: mock})

		mock.Add(19 * time.Second)
		_, pings := stream.messages()
		assert.Equal(t, 0, pings)

		mock.Add(time.Second)
		for i := 2; i <= 4; i++ {
			assert.Eventually(t, func() bool {
				_, pings := stream.messages()
				return pings == i-1
			}, time.Second, 5*time.Millisecond)

			mock.Add(20 * time.Second)
		}

		assert.Eventually(t, func() bool {
			_, pings := stream.messages()
			return pings == 4
		}, time.Second, 5*time.Millisecond)

		sub.Close()
		mock.Add(time.Minute)

		assert.Never(t, func() bool {
			_, pings := stream.messages()
			return pings != 4
		}, 50*time.Millisecond, 5*time.Millisecond)
	})

	t.Run("default interval", func(t *testing.T) {
		bus := core.NewEventBus(nil)
		stream := &fakeStream{}
		mock := clock.NewMock()

		sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: mock})
		defer sub.Close()

		mock.Add(core.DefaultKeepalive)

		assert.Eventually(t, func() bool {
			_, pings := stream.messages()
			return pings == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("write failure closes", func(t *testing.T) {
		bus := core.NewEventBus(nil)
		stream := &fakeStream{sendErr: errors.New("broken pipe")}
		mock := clock.NewMock()

		sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: mock})
		mock.Add(core.DefaultKeepalive)

		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatal("subscription not closed after keepalive failure")
		}

		assert.Equal(t, 0, bus.Count())
	})
}

// stoppedClock hands out tickers that were never started, so stopping one
// fails.
type stoppedClock struct {
	clock.Clock
}

func (stoppedClock) Ticker(time.Duration) *clock.Ticker {
	return &clock.Ticker{}
}

func TestSubscriptionTeardown(t *testing.T) {
	t.Run("closed while subscribing", func(t *testing.T) {
		bus := core.NewEventBus(nil)

		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					bus.Publish(core.TopicDoorPressed, core.DoorEvent{ID: 5, Name: "Front", TriggeredAt: "t", Type: core.KindDoor})
				}
			}
		}()

		for i := 0; i < 5000; i++ {
			stream := &fakeStream{sendErr: errors.New("broken pipe")}
			sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: clock.NewMock()})
			sub.Close()
			<-sub.Done()
		}

		close(stop)
		wg.Wait()

		assert.Equal(t, 0, bus.Count())
	})

	t.Run("ticker stop failure still detaches", func(t *testing.T) {
		bus := core.NewEventBus(nil)
		stream := &fakeStream{}

		sub := core.Subscribe(bus, 5, stream, core.SubscriptionOptions{Clock: stoppedClock{Clock: clock.NewMock()}})
		require.Equal(t, 3, bus.Count())

		sub.Close()

		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatal("teardown did not finish")
		}

		assert.Equal(t, 0, bus.Count())
		assert.Equal(t, 1, stream.closeCount())
	})
}
