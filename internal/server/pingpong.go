package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomrelay/internal/config"
	"github.com/Tyrowin/roomrelay/internal/pingpong"
)

// pingSession drives one connection through the serve/ping/pong gate. Reads
// and replies happen on the same goroutine, so the connection never has two
// concurrent writers.
type pingSession struct {
	conn    *websocket.Conn
	machine *pingpong.Machine
	cfg     config.Config
	logger  zerolog.Logger
}

func newPingSession(conn *websocket.Conn, cfg config.Config, logger zerolog.Logger) *pingSession {
	return &pingSession{
		conn:    conn,
		machine: pingpong.New(),
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *pingSession) run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	for {
		msgType, data, err := readFrame(s.conn, s.cfg.MaxFrameBytes)
		if errors.Is(err, errFrameTooLarge) {
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				logReadError(s.logger, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		before := s.machine.State()
		reply, ok := s.machine.Handle(string(data))
		if after := s.machine.State(); after != before {
			s.logger.Debug().Stringer("from", before).Stringer("to", after).Msg("ping-pong state changed")
		}
		if !ok {
			continue
		}

		if err := s.reply(reply); err != nil {
			logWriteError(s.logger, err)
			return
		}
	}
}

func (s *pingSession) reply(text string) error {
	if err := s.conn.SetWriteDeadline(deadline(s.cfg.WriteWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}
