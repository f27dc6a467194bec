package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type App struct {
	Env         string `yaml:"env"`
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
	LogLevel    string `yaml:"log_level"`
}

type HTTP struct {
	Port string `yaml:"port"`
}

type DB struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// DSN prefers URL and otherwise assembles one from the parts.
func (d DB) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type Kafka struct {
	Brokers        []string      `yaml:"brokers"`
	InventoryTopic string        `yaml:"inventory_topic"`
	UserTopic      string        `yaml:"user_topic"`
	Group          string        `yaml:"group"`
	FlushTimeout   time.Duration `yaml:"flush_timeout"`
	Backoff        time.Duration `yaml:"backoff"`
	CommitInterval time.Duration `yaml:"commit_interval"`
}

type Store struct {
	// Backend is "memory" or "postgres".
	Backend string `yaml:"backend"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

type Observations struct {
	// Backend is "lru" or "redis".
	Backend  string `yaml:"backend"`
	Capacity int    `yaml:"capacity"`
}

type Telemetry struct {
	// Exporter is "otlp" or "none".
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

type Downstream struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	App          App                   `yaml:"app"`
	HTTP         HTTP                  `yaml:"http"`
	Kafka        Kafka                 `yaml:"kafka"`
	Store        Store                 `yaml:"store"`
	DB           DB                    `yaml:"db"`
	Redis        Redis                 `yaml:"redis"`
	Observations Observations          `yaml:"observations"`
	Telemetry    Telemetry             `yaml:"telemetry"`
	Downstream   map[string]Downstream `yaml:"downstream"`
}

func defaults(service string) Config {
	return Config{
		App:  App{Env: "dev", ServiceName: service, Version: "dev", LogLevel: "info"},
		HTTP: HTTP{Port: "8080"},
		Kafka: Kafka{
			Brokers:        []string{"localhost:9092"},
			InventoryTopic: "inventory-events",
			UserTopic:      "user-events",
			Group:          service + "-observer",
			FlushTimeout:   5 * time.Second,
			Backoff:        time.Second,
			CommitInterval: time.Second,
		},
		Store: Store{Backend: "memory"},
		DB: DB{
			Host:     "127.0.0.1",
			Port:     "5432",
			Name:     "telemetry_demo",
			User:     "postgres",
			Password: "postgres",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: Redis{
			Addr:   "localhost:6379",
			TTL:    24 * time.Hour,
			Prefix: "observations:",
		},
		Observations: Observations{Backend: "lru", Capacity: 1000},
		Telemetry:    Telemetry{Exporter: "none", Endpoint: "http://localhost:4317", Insecure: true},
		Downstream: map[string]Downstream{
			"inventory-downstream": {URL: "http://localhost:8081/graphql", Timeout: 10 * time.Second},
			"users-downstream":     {URL: "http://localhost:8082/graphql", Timeout: 10 * time.Second},
		},
	}
}

// Load starts from defaults for service, merges the YAML file named by
// CONFIG_FILE when set, then applies environment overrides.
func Load(service string) (Config, error) {
	cfg := defaults(service)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.App.Env = getenv("APP_ENV", cfg.App.Env)
	cfg.App.ServiceName = getenv("SERVICE_NAME", cfg.App.ServiceName)
	cfg.App.Version = getenv("SERVICE_VERSION", cfg.App.Version)
	cfg.App.LogLevel = getenv("LOG_LEVEL", cfg.App.LogLevel)

	cfg.HTTP.Port = getenv("PORT", cfg.HTTP.Port)

	if v := splitCSV(os.Getenv("KAFKA_BROKERS")); len(v) > 0 {
		cfg.Kafka.Brokers = v
	}
	cfg.Kafka.InventoryTopic = getenv("INVENTORY_EVENTS_TOPIC", cfg.Kafka.InventoryTopic)
	cfg.Kafka.UserTopic = getenv("USER_EVENTS_TOPIC", cfg.Kafka.UserTopic)
	cfg.Kafka.Group = getenv("KAFKA_CONSUMER_GROUP", cfg.Kafka.Group)
	cfg.Kafka.FlushTimeout = getDuration("KAFKA_FLUSH_TIMEOUT", cfg.Kafka.FlushTimeout)
	cfg.Kafka.Backoff = getDuration("KAFKA_BACKOFF", cfg.Kafka.Backoff)
	cfg.Kafka.CommitInterval = getDuration("KAFKA_COMMIT_INTERVAL", cfg.Kafka.CommitInterval)

	cfg.Store.Backend = getenv("STORE_BACKEND", cfg.Store.Backend)

	cfg.DB.URL = getenv("DATABASE_URL", cfg.DB.URL)
	cfg.DB.Host = getenv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getenv("DB_PORT", cfg.DB.Port)
	cfg.DB.Name = getenv("DB_NAME", cfg.DB.Name)
	cfg.DB.User = getenv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getenv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.SSLMode = getenv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.MaxConns = getInt("DB_MAX_CONNS", cfg.DB.MaxConns)

	cfg.Redis.Addr = getenv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTL = getDuration("REDIS_TTL", cfg.Redis.TTL)
	cfg.Redis.Prefix = getenv("REDIS_PREFIX", cfg.Redis.Prefix)

	cfg.Observations.Backend = getenv("OBSERVATIONS_BACKEND", cfg.Observations.Backend)
	cfg.Observations.Capacity = getInt("OBSERVATIONS_CAPACITY", cfg.Observations.Capacity)

	cfg.Telemetry.Exporter = getenv("TRACES_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = getenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		cfg.Telemetry.Insecure, _ = strconv.ParseBool(v)
	}

	timeout := getDuration("DOWNSTREAM_TIMEOUT", 0)
	for name, env := range map[string]string{
		"inventory-downstream": "INVENTORY_DOWNSTREAM_URL",
		"users-downstream":     "USERS_DOWNSTREAM_URL",
	} {
		d := cfg.Downstream[name]
		d.URL = getenv(env, d.URL)
		if timeout > 0 {
			d.Timeout = timeout
		}
		if d.URL != "" {
			cfg.Downstream[name] = d
		}
	}
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("store.backend must be memory or postgres, got %q", c.Store.Backend)
	}
	switch c.Observations.Backend {
	case "lru", "redis":
	default:
		return fmt.Errorf("observations.backend must be lru or redis, got %q", c.Observations.Backend)
	}
	switch c.Telemetry.Exporter {
	case "otlp", "none":
	default:
		return fmt.Errorf("telemetry.exporter must be otlp or none, got %q", c.Telemetry.Exporter)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return parseDuration(v, def)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
