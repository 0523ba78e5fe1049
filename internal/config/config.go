// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP        HTTPConfig
	Logging     LoggingConfig
	Database    DatabaseConfig
	Store       StoreConfig
	MercadoPago MercadoPagoConfig
	Google      GoogleConfig
	Events      EventsConfig
	Reconciler  ReconcilerConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Addr is the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// DatabaseConfig holds PostgreSQL connectivity.
type DatabaseConfig struct {
	User         string
	Password     string
	Host         string
	Port         string
	Name         string
	SSLMode      string
	MaxOpenConns int
}

// URL formats the config into a PostgreSQL connection string.
// Credentials are escaped, so any byte is allowed in the password.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type StoreConfig struct {
	Driver string
}

// MercadoPagoConfig covers the provider side. Access tokens are per client and
// live in the database, not here.
type MercadoPagoConfig struct {
	Timeout         time.Duration
	NotificationURL string // optional, sent as notification_url on every preference
}

// GoogleConfig is used to verify Google ID tokens.
type GoogleConfig struct {
	ClientID string
	Issuer   string
}

// Events backends.
const (
	EventsBackendNone     = "none"
	EventsBackendKafka    = "kafka"
	EventsBackendRabbitMQ = "rabbitmq"
)

type EventsConfig struct {
	Backend     string
	KafkaBroker string
	KafkaTopic  string
	RabbitMQ    RabbitMQConfig
}

type RabbitMQConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Queue    string
}

// URL formats the config into a RabbitMQ connection string.
func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/",
	}
	return u.String()
}

// ReconcilerConfig drives the pending preference sweeper.
type ReconcilerConfig struct {
	Enabled   bool
	Interval  time.Duration
	MinAge    time.Duration
	BatchSize int
	Workers   int
}

var defaults = map[string]any{
	"SERVER_HOST":             "0.0.0.0",
	"SERVER_PORT":             8080,
	"SERVER_READ_TIMEOUT":     "10s",
	"SERVER_WRITE_TIMEOUT":    "30s",
	"SERVER_IDLE_TIMEOUT":     "60s",
	"SERVER_SHUTDOWN_TIMEOUT": "10s",
	"SERVER_ALLOWED_ORIGINS":  "*",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "text",
	"LOG_INCLUDE_CALLER":      false,
	"DB_USER":                 "postgres",
	"DB_PASSWORD":             "",
	"DB_HOST":                 "localhost",
	"DB_PORT":                 "5432",
	"DB_NAME":                 "pagos",
	"DB_SSLMODE":              "disable",
	"DB_MAX_OPEN_CONNS":       10,
	"STORE_DRIVER":            StoreDriverPostgres,
	"MP_TIMEOUT":              "15s",
	"MP_NOTIFICATION_URL":     "",
	"GOOGLE_CLIENT_ID":        "",
	"GOOGLE_ISSUER":           "https://accounts.google.com",
	"EVENTS_BACKEND":          EventsBackendNone,
	"KAFKA_BROKER":            "",
	"KAFKA_TOPIC":             "pagos.events",
	"RABBITMQ_USER":           "guest",
	"RABBITMQ_PASSWORD":       "guest",
	"RABBITMQ_HOST":           "localhost",
	"RABBITMQ_PORT":           "5672",
	"RABBITMQ_QUEUE":          "pagos_events",
	"RECONCILER_ENABLED":      false,
	"RECONCILER_INTERVAL":     "5m",
	"RECONCILER_MIN_AGE":      "10m",
	"RECONCILER_BATCH_SIZE":   50,
	"RECONCILER_WORKERS":      5,
}

// Load reads configuration from environment variables and, when envFile
// names an existing dotenv file, from that file. Environment wins.
func Load(envFile string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitCSV(v.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Logging: LoggingConfig{
			Level:         v.GetString("LOG_LEVEL"),
			Format:        v.GetString("LOG_FORMAT"),
			IncludeCaller: v.GetBool("LOG_INCLUDE_CALLER"),
		},
		Database: DatabaseConfig{
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("STORE_DRIVER")),
		},
		MercadoPago: MercadoPagoConfig{
			Timeout:         v.GetDuration("MP_TIMEOUT"),
			NotificationURL: v.GetString("MP_NOTIFICATION_URL"),
		},
		Google: GoogleConfig{
			ClientID: v.GetString("GOOGLE_CLIENT_ID"),
			Issuer:   v.GetString("GOOGLE_ISSUER"),
		},
		Events: EventsConfig{
			Backend:     strings.ToLower(v.GetString("EVENTS_BACKEND")),
			KafkaBroker: v.GetString("KAFKA_BROKER"),
			KafkaTopic:  v.GetString("KAFKA_TOPIC"),
			RabbitMQ: RabbitMQConfig{
				User:     v.GetString("RABBITMQ_USER"),
				Password: v.GetString("RABBITMQ_PASSWORD"),
				Host:     v.GetString("RABBITMQ_HOST"),
				Port:     v.GetString("RABBITMQ_PORT"),
				Queue:    v.GetString("RABBITMQ_QUEUE"),
			},
		},
		Reconciler: ReconcilerConfig{
			Enabled:   v.GetBool("RECONCILER_ENABLED"),
			Interval:  v.GetDuration("RECONCILER_INTERVAL"),
			MinAge:    v.GetDuration("RECONCILER_MIN_AGE"),
			BatchSize: v.GetInt("RECONCILER_BATCH_SIZE"),
			Workers:   v.GetInt("RECONCILER_WORKERS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Events.Backend {
	case EventsBackendNone, EventsBackendKafka, EventsBackendRabbitMQ:
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.Events.Backend)
	}
	if c.MercadoPago.Timeout <= 0 {
		return fmt.Errorf("MP_TIMEOUT must be positive")
	}
	if c.Reconciler.Enabled && (c.Reconciler.Interval <= 0 || c.Reconciler.Workers <= 0 || c.Reconciler.BatchSize <= 0) {
		return fmt.Errorf("reconciler needs a positive interval, worker count and batch size")
	}
	return nil
}

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
