package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/roomrelay/internal/broadcast"
	"github.com/Tyrowin/roomrelay/internal/config"
	"github.com/Tyrowin/roomrelay/internal/relay"
)

func deadline(d time.Duration) time.Time {
	return time.Now().Add(d)
}

// roomSession relays frames between one websocket connection and one room.
// The inbound loop publishes the peer's messages; the outbound loop forwards
// everything published to the room, the peer's own messages included.
type roomSession struct {
	conn    *websocket.Conn
	room    *broadcast.Channel[relay.Envelope]
	user    string
	views   *relay.Counter
	cfg     config.Config
	limiter *rateLimiter
	logger  zerolog.Logger
}

func newRoomSession(conn *websocket.Conn, room *broadcast.Channel[relay.Envelope], user string,
	views *relay.Counter, cfg config.Config, logger zerolog.Logger) *roomSession {
	return &roomSession{
		conn:    conn,
		room:    room,
		user:    user,
		views:   views,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimit, time.Now()),
		logger:  logger,
	}
}

// run blocks until the connection is gone. Both loops share one errgroup
// context: whichever returns first cancels it, which closes the connection
// and stops the other.
func (s *roomSession) run(parent context.Context) error {
	sub := s.room.Subscribe()
	defer sub.Close()

	s.setupReadConnection()

	g, ctx := errgroup.WithContext(parent)
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error { return s.writeLoop(ctx, sub) })

	err := g.Wait()
	if errors.Is(err, errSessionEnded) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// setupReadConnection applies the pong-driven read deadline when keepalive
// is on.
func (s *roomSession) setupReadConnection() {
	if s.cfg.PingInterval <= 0 {
		return
	}

	if err := s.conn.SetReadDeadline(deadline(s.cfg.PongWait)); err != nil {
		s.logger.Debug().Err(err).Msg("error setting initial read deadline")
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(deadline(s.cfg.PongWait))
	})
}

func (s *roomSession) readLoop(ctx context.Context) error {
	for {
		msgType, data, err := readFrame(s.conn, s.cfg.MaxFrameBytes)
		if errors.Is(err, errFrameTooLarge) {
			s.logger.Debug().Int64("limit", s.cfg.MaxFrameBytes).Msg("discarding oversized frame")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logReadError(s.logger, err)
			return errSessionEnded
		}

		if msgType != websocket.TextMessage {
			s.logger.Debug().Int("type", msgType).Msg("ignoring non-text frame")
			continue
		}
		s.publish(data)
	}
}

// publish validates one inbound frame and hands it to the room. Invalid
// frames are dropped without telling the peer.
func (s *roomSession) publish(data []byte) {
	if !s.limiter.allow(time.Now()) {
		s.logger.Warn().Int("burst", s.cfg.RateLimit.Burst).Dur("refill", s.cfg.RateLimit.RefillInterval).
			Msg("rate limit exceeded; discarding message")
		return
	}

	msg, err := relay.DecodeMessage(data, s.cfg.MaxMessageRunes)
	if err != nil {
		s.logger.Debug().Err(err).Msg("discarding invalid message")
		return
	}

	receivers := s.room.Publish(msg.Seal(s.user))
	s.logger.Debug().Int("receivers", receivers).Msg("message published")
}

// readFrame reads the next data frame. A frame longer than limit is drained
// and reported as errFrameTooLarge; the connection stays usable.
func readFrame(conn *websocket.Conn, limit int64) (int, []byte, error) {
	msgType, r, err := conn.NextReader()
	if err != nil {
		return 0, nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return 0, nil, err
	}
	if int64(len(data)) <= limit {
		return msgType, data, nil
	}

	if _, err := io.Copy(io.Discard, r); err != nil {
		return 0, nil, err
	}
	return msgType, nil, errFrameTooLarge
}

func (s *roomSession) writeLoop(ctx context.Context, sub *broadcast.Subscription[relay.Envelope]) error {
	var tick <-chan time.Time
	if s.cfg.PingInterval > 0 {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var dropped uint64
	for {
		select {
		case <-ctx.Done():
			s.writeClose()
			return ctx.Err()

		case env, ok := <-sub.C():
			if !ok {
				return errSessionEnded
			}
			if d := sub.Dropped(); d > dropped {
				s.logger.Warn().Uint64("skipped", d-dropped).Msg("subscriber lagged; oldest messages dropped")
				dropped = d
			}

			s.views.Increment()
			if err := s.writeEnvelope(env); err != nil {
				logWriteError(s.logger, err)
				return errSessionEnded
			}

		case <-tick:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline(s.cfg.WriteWait)); err != nil {
				logWriteError(s.logger, err)
				return errSessionEnded
			}
		}
	}
}

func (s *roomSession) writeEnvelope(env relay.Envelope) error {
	payload, err := env.Encode()
	if err != nil {
		return err
	}
	if err := s.conn.SetWriteDeadline(deadline(s.cfg.WriteWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// writeClose sends a best-effort close frame before the connection is torn
// down.
func (s *roomSession) writeClose() {
	err := s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline(s.cfg.WriteWait))
	if err != nil && !isExpectedCloseError(err) && !errors.Is(err, websocket.ErrCloseSent) {
		s.logger.Debug().Err(err).Msg("error writing close message")
	}
}

// logReadError logs a read failure at a level matching how surprising it is.
func logReadError(logger zerolog.Logger, err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		logger.Info().Err(err).Msg("client disconnected")
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), isExpectedCloseError(err):
		logger.Info().Err(err).Msg("connection closed")
	case websocket.IsUnexpectedCloseError(err, websocket.CloseAbnormalClosure):
		logger.Warn().Err(err).Msg("unexpected websocket close")
	default:
		logger.Info().Err(err).Msg("websocket read error")
	}
}

func logWriteError(logger zerolog.Logger, err error) {
	if isExpectedCloseError(err) || errors.Is(err, websocket.ErrCloseSent) {
		logger.Debug().Err(err).Msg("write on closed connection")
		return
	}
	logger.Warn().Err(err).Msg("websocket write error")
}
