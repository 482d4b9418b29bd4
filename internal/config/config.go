// Package config defines the runtime settings of the relay server and loads
// them from defaults, an optional YAML file and the environment, in that order.
package config

import (
	"time"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ROOMRELAY_"

// Default values for every setting.
const (
	DefaultAddr            = ":8080"
	DefaultMaxFrameBytes   = 64 << 20
	DefaultMaxMessageRunes = 128
	DefaultRoomCapacity    = 100
	DefaultWriteWait       = 10 * time.Second
	DefaultPongWait        = 60 * time.Second
	DefaultPingInterval    = (DefaultPongWait * 9) / 10
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRefillInterval  = time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// RateLimitConfig defines per-connection publish throttling. A Burst of zero
// disables the limiter.
type RateLimitConfig struct {
	Burst          int           `yaml:"burst" env:"RATE_LIMIT_BURST"`
	RefillInterval time.Duration `yaml:"refill_interval" env:"RATE_LIMIT_REFILL_INTERVAL"`
}

// HTTPConfig holds the timeouts applied to plain HTTP requests.
type HTTPConfig struct {
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT"`
}

// LogConfig selects the log level and output format ("json" or "console").
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Config holds the server configuration.
type Config struct {
	Addr           string   `yaml:"addr" env:"ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// MaxFrameBytes caps how much of a single inbound websocket frame is
	// buffered; larger frames are drained and dropped. Message content is
	// limited separately by MaxMessageRunes.
	MaxFrameBytes   int64 `yaml:"max_frame_bytes" env:"MAX_FRAME_BYTES"`
	MaxMessageRunes int   `yaml:"max_message_runes" env:"MAX_MESSAGE_RUNES"`
	RoomCapacity    int   `yaml:"room_capacity" env:"ROOM_CAPACITY"`

	WriteWait time.Duration `yaml:"write_wait" env:"WRITE_WAIT"`
	PongWait  time.Duration `yaml:"pong_wait" env:"PONG_WAIT"`
	// PingInterval of zero disables keepalive pings.
	PingInterval time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns a Config populated with default values for all settings.
func Default() Config {
	return Config{
		Addr:            DefaultAddr,
		AllowedOrigins:  []string{"*"},
		MaxFrameBytes:   DefaultMaxFrameBytes,
		MaxMessageRunes: DefaultMaxMessageRunes,
		RoomCapacity:    DefaultRoomCapacity,
		WriteWait:       DefaultWriteWait,
		PongWait:        DefaultPongWait,
		PingInterval:    DefaultPingInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
		RateLimit: RateLimitConfig{
			RefillInterval: DefaultRefillInterval,
		},
		HTTP: HTTPConfig{
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// New returns a pointer to a default Config.
func New() *Config {
	cfg := Default()
	return &cfg
}
