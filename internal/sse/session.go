package sse

import (
	"errors"
	"net/http"
	"sync"
	"time"
)

var ErrSessionClosed = errors.New("sse: session closed")

// Session is the outbound half of one SSE connection. Writes are serialised;
// once closed it never touches the ResponseWriter again.
type Session struct {
	id           string
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration

	mux    sync.Mutex
	closed bool
	done   chan struct{}
}

func newSession(id string, w http.ResponseWriter, writeTimeout time.Duration) *Session {
	return &Session{
		id:           id,
		w:            w,
		rc:           http.NewResponseController(w),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Send(data []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if s.writeTimeout > 0 {
		err := s.rc.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
	}

	if err := writeEvent(s.w, data); err != nil {
		return err
	}

	return s.flush()
}

// Close marks the session finished. It is safe to call more than once.
func (s *Session) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)

	return nil
}

// Done is closed once Close has been called.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) open() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("X-Accel-Buffering", "no")

	s.w.WriteHeader(http.StatusOK)

	return s.flush()
}

func (s *Session) flush() error {
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}

	return nil
}
