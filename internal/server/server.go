package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomrelay/internal/config"
	"github.com/Tyrowin/roomrelay/internal/relay"
)

// Server owns the relay state shared by every connection: the room registry,
// the delivery counter and the set of live sessions. Create one with New and
// mount Routes on an http.Server.
type Server struct {
	cfg      config.Config
	logger   zerolog.Logger
	rooms    *relay.Registry
	views    *relay.Counter
	origins  *originPolicy
	upgrader websocket.Upgrader

	// ctx is the parent of every session; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[uuid.UUID]*websocket.Conn
	closing  bool
	wg       sync.WaitGroup
}

// New creates a Server. A nil cfg uses config defaults.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	if cfg == nil {
		cfg = config.New()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:      *cfg,
		logger:   logger,
		rooms:    relay.NewRegistry(cfg.RoomCapacity),
		views:    &relay.Counter{},
		origins:  newOriginPolicy(cfg.AllowedOrigins, logger),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[uuid.UUID]*websocket.Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// Rooms returns the room registry.
func (s *Server) Rooms() *relay.Registry {
	return s.rooms
}

// Views returns the delivery counter.
func (s *Server) Views() *relay.Counter {
	return s.views
}

// Stats returns a snapshot of the relay's size.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	sessions := len(s.sessions)
	s.mu.Unlock()

	return Stats{
		Rooms:    s.rooms.Len(),
		Sessions: sessions,
		Views:    s.views.Load(),
	}
}

// upgrade switches the request to a websocket and registers it as a live
// session. ok is false when the upgrade failed or the server is shutting down;
// the response has already been written in that case.
func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (id uuid.UUID, conn *websocket.Conn, ok bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return uuid.Nil, nil, false
	}

	id = uuid.New()
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			deadline(s.cfg.WriteWait))
		_ = conn.Close()
		return uuid.Nil, nil, false
	}
	s.sessions[id] = conn
	count := len(s.sessions)
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug().Stringer("session", id).Str("remote", r.RemoteAddr).Int("sessions", count).Msg("session opened")
	return id, conn, true
}

// release closes the connection and forgets the session.
func (s *Server) release(id uuid.UUID, conn *websocket.Conn) {
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		s.logger.Debug().Err(err).Stringer("session", id).Msg("error closing connection")
	}

	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	s.wg.Done()

	s.logger.Debug().Stringer("session", id).Int("sessions", count).Msg("session closed")
}

// closeSessions closes every live connection, which ends their sessions.
func (s *Server) closeSessions() int {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.sessions))
	for _, conn := range s.sessions {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			deadline(s.cfg.WriteWait))
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.logger.Debug().Err(err).Msg("error closing connection during shutdown")
		}
	}
	return len(conns)
}

// Shutdown stops accepting sessions, closes the live ones and waits for them
// to finish or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down relay sessions")

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	closed := s.closeSessions()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Int("sessions", closed).Msg("relay shutdown completed")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("relay shutdown timed out, some sessions may still be running")
		return ctx.Err()
	}
}
