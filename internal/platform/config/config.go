package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends for the process collection.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the full process configuration.
type Config struct {
	Server  Server
	Storage Storage
	Redis   RedisConfig
	Log     Log

	// TemplatesFile points at optional per process type workflow extensions.
	TemplatesFile string
	// DataExpiryDays is the retention window applied when data expiry is enabled.
	DataExpiryDays int
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Storage selects the byte store behind the persisted collection.
type Storage struct {
	Backend     string
	Key         string
	DataDir     string
	DatabaseURL string
	S3          S3
}

// S3 locates the bucket used by the s3 backend.
type S3 struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// RedisConfig holds go-redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Log configures the slog handler.
type Log struct {
	Level  slog.Level
	Format string
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unset variables take their defaults; malformed ones are an error.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	env := envReader{lookup: lookup}

	cfg := Config{
		Server: Server{
			Addr:            env.str("CLARITY_ADDR", ":8080"),
			ShutdownTimeout: env.duration("CLARITY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: Storage{
			Backend:     strings.ToLower(env.str("CLARITY_STORAGE_BACKEND", BackendMemory)),
			Key:         env.str("CLARITY_STORAGE_KEY", "processes_data"),
			DataDir:     env.str("CLARITY_DATA_DIR", "./data"),
			DatabaseURL: env.str("DATABASE_URL", ""),
			S3: S3{
				Bucket:   env.str("CLARITY_S3_BUCKET", ""),
				Region:   env.str("AWS_REGION", "us-east-1"),
				Endpoint: env.str("CLARITY_S3_ENDPOINT", ""),
				Prefix:   env.str("CLARITY_S3_PREFIX", ""),
			},
		},
		Redis: RedisConfig{
			URL:          env.str("REDIS_URL", ""),
			PoolSize:     env.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: Log{
			Format: strings.ToLower(env.str("CLARITY_LOG_FORMAT", LogFormatText)),
		},
		TemplatesFile:  env.str("CLARITY_TEMPLATES_FILE", ""),
		DataExpiryDays: env.integer("CLARITY_DATA_EXPIRY_DAYS", 30),
	}
	if level, ok := lookup("CLARITY_LOG_LEVEL"); ok && level != "" {
		if err := cfg.Log.Level.UnmarshalText([]byte(level)); err != nil {
			env.errs = append(env.errs, fmt.Errorf("CLARITY_LOG_LEVEL: %w", err))
		}
	}
	if len(env.errs) > 0 {
		return Config{}, env.errs[0]
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis storage backend")
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("CLARITY_S3_BUCKET is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("CLARITY_STORAGE_KEY must not be empty")
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.DataExpiryDays <= 0 {
		return fmt.Errorf("CLARITY_DATA_EXPIRY_DAYS must be positive")
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
