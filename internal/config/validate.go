package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr is required", ErrInvalid)
	case c.MaxFrameBytes <= 0:
		return fmt.Errorf("%w: max_frame_bytes must be positive", ErrInvalid)
	case c.MaxMessageRunes <= 0:
		return fmt.Errorf("%w: max_message_runes must be positive", ErrInvalid)
	case c.RoomCapacity <= 0:
		return fmt.Errorf("%w: room_capacity must be positive", ErrInvalid)
	case c.WriteWait <= 0:
		return fmt.Errorf("%w: write_wait must be positive", ErrInvalid)
	case c.PingInterval < 0:
		return fmt.Errorf("%w: ping_interval must not be negative", ErrInvalid)
	case c.PingInterval > 0 && c.PingInterval >= c.PongWait:
		return fmt.Errorf("%w: ping_interval (%s) must be shorter than pong_wait (%s)", ErrInvalid, c.PingInterval, c.PongWait)
	case c.RateLimit.Burst < 0:
		return fmt.Errorf("%w: rate_limit.burst must not be negative", ErrInvalid)
	case c.RateLimit.Burst > 0 && c.RateLimit.RefillInterval <= 0:
		return fmt.Errorf("%w: rate_limit.refill_interval must be positive", ErrInvalid)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalid)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%w: log.format must be json or console, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
