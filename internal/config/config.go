package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `yaml:"port" env:"PICSHED_SERVER_PORT"`
	Interface    string        `yaml:"interface" env:"PICSHED_SERVER_INTERFACE"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"PICSHED_SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"PICSHED_SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"PICSHED_SERVER_IDLE_TIMEOUT"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host     string `yaml:"host" env:"PICSHED_POSTGRES_HOST"`
	Port     string `yaml:"port" env:"PICSHED_POSTGRES_PORT"`
	User     string `yaml:"user" env:"PICSHED_POSTGRES_USER"`
	Password string `yaml:"password" env:"PICSHED_POSTGRES_PASSWORD"`
	Database string `yaml:"database" env:"PICSHED_POSTGRES_DATABASE"`
	SSLMode  string `yaml:"sslmode" env:"PICSHED_POSTGRES_SSL_MODE"`
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `yaml:"host" env:"PICSHED_REDIS_HOST"`
	Port     string `yaml:"port" env:"PICSHED_REDIS_PORT"`
	Password string `yaml:"password" env:"PICSHED_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"PICSHED_REDIS_DB"`
}

// Addr returns the host:port address of the Redis server
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string `yaml:"secret" env:"PICSHED_JWT_SECRET"`
	ExpirationSeconds int    `yaml:"expiration_seconds" env:"PICSHED_JWT_EXPIRATION_SECONDS"`
}

// WebSocketConfig holds collaborative editing configuration
type WebSocketConfig struct {
	// QueueCapacity is the buffered capacity of each ingestion lane
	QueueCapacity int `yaml:"queue_capacity" env:"PICSHED_WS_QUEUE_CAPACITY"`
	// Workers is the number of ingestion lanes (one worker per lane)
	Workers int `yaml:"workers" env:"PICSHED_WS_WORKERS"`
	// SendBuffer is the per-connection outbound channel capacity
	SendBuffer int `yaml:"send_buffer" env:"PICSHED_WS_SEND_BUFFER"`
	// ReadLimit is the maximum inbound frame size in bytes
	ReadLimit    int64         `yaml:"read_limit" env:"PICSHED_WS_READ_LIMIT"`
	PongTimeout  time.Duration `yaml:"pong_timeout" env:"PICSHED_WS_PONG_TIMEOUT"`
	PingInterval time.Duration `yaml:"ping_interval" env:"PICSHED_WS_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"PICSHED_WS_WRITE_TIMEOUT"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level" env:"PICSHED_LOG_LEVEL"`
	IsDev            bool   `yaml:"is_dev" env:"PICSHED_LOG_IS_DEV"`
	LogDir           string `yaml:"log_dir" env:"PICSHED_LOG_DIR"`
	MaxAgeDays       int    `yaml:"max_age_days" env:"PICSHED_LOG_MAX_AGE_DAYS"`
	MaxSizeMB        int    `yaml:"max_size_mb" env:"PICSHED_LOG_MAX_SIZE_MB"`
	MaxBackups       int    `yaml:"max_backups" env:"PICSHED_LOG_MAX_BACKUPS"`
	AlsoLogToConsole bool   `yaml:"also_log_to_console" env:"PICSHED_LOG_CONSOLE"`
}

// Default returns a Config populated with development defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Interface:    "0.0.0.0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "picshed",
				Database: "picshed",
				SSLMode:  "disable",
			},
			Redis: RedisConfig{
				Host: "localhost",
				Port: "6379",
			},
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				ExpirationSeconds: 3600,
			},
		},
		WebSocket: WebSocketConfig{
			QueueCapacity: 256,
			Workers:       4,
			SendBuffer:    256,
			ReadLimit:     4096,
			PongTimeout:   60 * time.Second,
			PingInterval:  30 * time.Second,
			WriteTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:            "info",
			LogDir:           "logs",
			MaxAgeDays:       7,
			MaxSizeMB:        100,
			MaxBackups:       10,
			AlsoLogToConsole: true,
		},
	}
}

// Load reads configuration from an optional YAML file and applies
// environment variable overrides on top of defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - config path comes from the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(reflect.ValueOf(cfg).Elem())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides walks the config struct and overrides any field whose
// `env` tag names a set environment variable.
func applyEnvOverrides(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyEnvOverrides(field)
			continue
		}
		envName := t.Field(i).Tag.Get("env")
		if envName == "" {
			continue
		}
		raw, ok := os.LookupEnv(envName)
		if !ok {
			continue
		}
		setField(field, raw)
	}
}

func setField(field reflect.Value, raw string) {
	switch field.Interface().(type) {
	case time.Duration:
		if d, err := time.ParseDuration(raw); err == nil {
			field.SetInt(int64(d))
		}
	case string:
		field.SetString(raw)
	case bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			field.SetBool(b)
		}
	case int:
		if n, err := strconv.Atoi(raw); err == nil {
			field.SetInt(int64(n))
		}
	case int64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			field.SetInt(n)
		}
	}
}

// Validate checks that required settings are present and sane
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Auth.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required (set PICSHED_JWT_SECRET)")
	}
	if c.WebSocket.QueueCapacity <= 0 {
		return fmt.Errorf("websocket queue capacity must be positive, got %d", c.WebSocket.QueueCapacity)
	}
	if c.WebSocket.Workers <= 0 {
		return fmt.Errorf("websocket worker count must be positive, got %d", c.WebSocket.Workers)
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket send buffer must be positive, got %d", c.WebSocket.SendBuffer)
	}
	return nil
}
