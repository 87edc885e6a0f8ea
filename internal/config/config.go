package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Remote      RemoteConfig
	Mirror      MirrorConfig
	JWT         JWTConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Monitor     MonitorConfig
	Store       StoreConfig
}

// Remote backend drivers.
const (
	RemoteREST     = "rest"
	RemotePostgres = "postgres"
	RemoteNone     = "none"
)

// Local mirror drivers.
const (
	MirrorBolt  = "bolt"
	MirrorRedis = "redis"
)

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// JWTConfig configures bearer token checks. An empty Issuer accepts any iss claim.
type JWTConfig struct {
	Secret string
	Issuer string
}

// RemoteConfig selects the hosted table backend. The REST driver needs URL and Key,
// the postgres driver uses DatabaseConfig.
type RemoteConfig struct {
	Driver  string
	URL     string
	Key     string
	Timeout time.Duration
}

type MirrorConfig struct {
	Driver    string
	Path      string
	Bucket    string
	KeyPrefix string
}

type MonitorConfig struct {
	Interval time.Duration
}

// StoreConfig bounds the per-owner store cache. A zero IdleTTL keeps stores forever.
type StoreConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "lucidportal"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "backend_db"),
			User:            getString("DB_USER", "backend_user"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Remote: RemoteConfig{
			Driver:  getString("REMOTE_DRIVER", RemoteREST),
			URL:     os.Getenv("SUPABASE_URL"),
			Key:     os.Getenv("SUPABASE_ANON_KEY"),
			Timeout: getDuration("REMOTE_TIMEOUT_SECONDS", 10*time.Second),
		},
		Mirror: MirrorConfig{
			Driver:    getString("MIRROR_DRIVER", MirrorBolt),
			Path:      getString("BOLTDB_PATH", "./data/mirror.db"),
			Bucket:    getString("MIRROR_BUCKET", "mirror"),
			KeyPrefix: getString("MIRROR_KEY_PREFIX", "lucid"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: os.Getenv("JWT_ISSUER"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", false),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL_SECONDS", 30*time.Second),
		},
		Store: StoreConfig{
			IdleTTL:       getDuration("STORE_IDLE_TTL", 30*time.Minute),
			SweepInterval: getDuration("STORE_SWEEP_INTERVAL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers.
func (c *Config) Validate() error {
	switch c.Remote.Driver {
	case RemoteREST, RemotePostgres, RemoteNone:
	default:
		return fmt.Errorf("config: unknown REMOTE_DRIVER %q", c.Remote.Driver)
	}
	switch c.Mirror.Driver {
	case MirrorBolt, MirrorRedis:
	default:
		return fmt.Errorf("config: unknown MIRROR_DRIVER %q", c.Mirror.Driver)
	}
	return nil
}

// RESTConfigured reports whether the REST driver has an endpoint and a credential.
func (c *Config) RESTConfigured() bool {
	return c.Remote.URL != "" && c.Remote.Key != ""
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
