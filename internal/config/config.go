package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Event drivers
const (
	EventsNone  = "none"
	EventsLog   = "log"
	EventsKafka = "kafka"
	EventsAMQP  = "amqp"
)

// Config holds all configuration values
type Config struct {
	Addr         string        `yaml:"addr"`
	Store        string        `yaml:"store"`
	DBPath       string        `yaml:"db_path"`
	PostgresDSN  string        `yaml:"postgres_dsn"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	TraceSQL     bool          `yaml:"trace_sql"`
	Events       Events        `yaml:"events"`

	DBPathSource string // where DBPath was set from: "default", "yaml file", or "env var"
	DemoMode     bool   // load sample data on new database (set via -demo flag)
}

// Events configures where committed customer changes are published.
type Events struct {
	Driver   string   `yaml:"driver"`
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	AMQPURL  string   `yaml:"amqp_url"`
	Exchange string   `yaml:"exchange"`
}

// LoadEnvFile loads variables from a dotenv file. Variables already present in
// the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from YAML file and overrides with env vars if present
func Load(path string) (*Config, error) {
	// Defaults
	cfg := &Config{
		Addr:         ":8080",
		Store:        StoreSQLite,
		DBPath:       "./customers.db",
		DBPathSource: "default",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
		Events: Events{
			Driver:   EventsNone,
			Topic:    "customer-events",
			Exchange: "customers",
		},
	}

	// Load from YAML if file exists
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		prevDBPath := cfg.DBPath
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if cfg.DBPath != prevDBPath {
			cfg.DBPathSource = "yaml file"
		}
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
		cfg.DBPathSource = "env var"
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TRACE_SQL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TRACE_SQL: %w", err)
		}
		cfg.TraceSQL = b
	}
	if v := os.Getenv("EVENTS_DRIVER"); v != "" {
		cfg.Events.Driver = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = splitList(v)
	}
	if v := os.Getenv("EVENTS_TOPIC"); v != "" {
		cfg.Events.Topic = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.Events.AMQPURL = v
	}
	if v := os.Getenv("EVENTS_EXCHANGE"); v != "" {
		cfg.Events.Exchange = v
	}

	return cfg, nil
}

// Validate reports settings that cannot be served.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("db_path is required for the sqlite store")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres_dsn is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want sqlite, postgres or memory)", c.Store)
	}

	switch c.Events.Driver {
	case "", EventsNone, EventsLog:
	case EventsKafka:
		if len(c.Events.Brokers) == 0 {
			return errors.New("events.brokers is required for the kafka driver")
		}
		if c.Events.Topic == "" {
			return errors.New("events.topic is required for the kafka driver")
		}
	case EventsAMQP:
		if c.Events.AMQPURL == "" {
			return errors.New("events.amqp_url is required for the amqp driver")
		}
		if c.Events.Exchange == "" {
			return errors.New("events.exchange is required for the amqp driver")
		}
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}

	if c.DemoMode && c.Store != StoreSQLite {
		return errors.New("-demo is only supported with the sqlite store")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
