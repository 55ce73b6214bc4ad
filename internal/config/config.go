package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/aannaassalam/coachiatry-sub001/pkg/config"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

type Config struct {
	API       APIConfig
	WebSocket WebSocketConfig
	Upload    UploadConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Control   ControlConfig
	Session   SessionConfig
	Log       pkglog.Config
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string
}

type WebSocketConfig struct {
	URL               string
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	PongWait          time.Duration `mapstructure:"pong_wait"`
	WriteWait         time.Duration `mapstructure:"write_wait"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	SendBuffer        int           `mapstructure:"send_buffer"`
}

type UploadConfig struct {
	ChunkSize          int64 `mapstructure:"chunk_size"`
	MaxConcurrentFiles int   `mapstructure:"max_concurrent_files"`
}

type CacheConfig struct {
	Backend string // "memory" or "redis"
	TTL     time.Duration
}

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string `mapstructure:"key_prefix"`
}

type ControlConfig struct {
	Enabled bool
	Address string
}

type SessionConfig struct {
	ChatID string `mapstructure:"chat_id"`
}

// DefaultChunkSize is the fixed multi-part upload partition size.
const DefaultChunkSize = 5 * 1024 * 1024

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config", "")
	if err != nil {
		return nil, err
	}

	setDefaults(v)

	// Override from environment
	v.BindEnv("api.base_url", "API_BASE_URL")
	v.BindEnv("api.token", "API_TOKEN")
	v.BindEnv("websocket.url", "WS_URL")
	v.BindEnv("cache.backend", "CACHE_BACKEND")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("control.enabled", "CONTROL_ENABLED")
	v.BindEnv("control.address", "CONTROL_ADDRESS")
	v.BindEnv("session.chat_id", "CHAT_ID")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.token", "")
	v.SetDefault("websocket.url", "ws://localhost:8000/ws")
	v.SetDefault("websocket.ping_interval", "25s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 1<<20)
	v.SetDefault("websocket.reconnect_attempts", 5)
	v.SetDefault("websocket.reconnect_delay", "2s")
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("upload.chunk_size", DefaultChunkSize)
	v.SetDefault("upload.max_concurrent_files", 4)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "chat:conversation:")
	v.SetDefault("control.enabled", false)
	v.SetDefault("control.address", "127.0.0.1:7070")
	v.SetDefault("session.chat_id", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "chat-client")
	v.SetDefault("log.file", "chat-client.log")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.API.Timeout = parseDuration(v, "api.timeout", 30*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 25*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.WebSocket.ReconnectDelay = parseDuration(v, "websocket.reconnect_delay", 2*time.Second)
	cfg.Cache.TTL = parseDuration(v, "cache.ttl", 5*time.Minute)

	if cfg.Upload.ChunkSize <= 0 {
		cfg.Upload.ChunkSize = DefaultChunkSize
	}
	if cfg.Upload.MaxConcurrentFiles <= 0 {
		cfg.Upload.MaxConcurrentFiles = 4
	}

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
