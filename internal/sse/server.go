package sse

import (
	"net/http"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/timada-org/doorphone/internal/logger"
	"github.com/timada-org/doorphone/internal/metrics"
	"go.uber.org/zap"
)

// AttachFunc binds a freshly opened session to its event source. The returned
// function detaches it again and must close the session.
type AttachFunc func(session *Session) (detach func())

type ServerOptions struct {
	// WriteTimeout bounds a single event write. Zero disables it.
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

type Server struct {
	mux          sync.RWMutex
	sessions     map[string]*Session
	writeTimeout time.Duration
	logger       *zap.Logger
}

func New(options *ServerOptions) *Server {
	if options == nil {
		options = &ServerOptions{}
	}

	return &Server{
		sessions:     make(map[string]*Session),
		writeTimeout: options.WriteTimeout,
		logger:       logger.OrNop(options.Logger),
	}
}

// Serve streams to w until the client goes away or the session is closed by
// its source. The session is detached before Serve returns.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, attach AttachFunc) {
	id, err := gonanoid.New()
	if err != nil {
		s.logger.Error("failed to create session id", zap.Error(err))
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}

	session := newSession(id, w, s.writeTimeout)
	if err := session.open(); err != nil {
		s.logger.Debug("failed to open stream", zap.String("session_id", id), zap.Error(err))
		return
	}

	s.mux.Lock()
	s.sessions[id] = session
	s.mux.Unlock()
	metrics.Sessions.Inc()

	detach := attach(session)

	select {
	case <-r.Context().Done():
	case <-session.Done():
	}

	detach()
	_ = session.Close()

	s.mux.Lock()
	delete(s.sessions, id)
	s.mux.Unlock()
	metrics.Sessions.Dec()

	s.logger.Debug("session closed", zap.String("session_id", id))
}

func (s *Server) Get(id string) (*Session, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	session, ok := s.sessions[id]

	return session, ok
}

func (s *Server) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()

	return len(s.sessions)
}

// Close ends every open session.
func (s *Server) Close() {
	s.mux.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mux.RUnlock()

	for _, session := range sessions {
		_ = session.Close()
	}
}
