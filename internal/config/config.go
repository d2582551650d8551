// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string
	DBPath            string
	BroadcastInterval time.Duration
	RouterTimeout     time.Duration
	PollConcurrency   int
	SecretKey         []byte // nil when MIKROMON_SECRET_KEY is unset
	SeedFile          string
	AllowedOrigins    []string
	LogLevel          slog.Level
	LogJSON           bool
	MQTT              MQTTConfig
}

// MQTTConfig configures the optional MQTT stats exporter.
type MQTTConfig struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// Load reads configuration from environment variables and returns a
// validated Config. Every variable is optional:
// MIKROMON_LISTEN_ADDR (127.0.0.1:8080), MIKROMON_DB_PATH
// (mikrotikmonitoring.db), MIKROMON_BROADCAST_INTERVAL (3s),
// MIKROMON_ROUTER_TIMEOUT (10s), MIKROMON_POLL_CONCURRENCY (4),
// MIKROMON_SECRET_KEY (64 hex chars), MIKROMON_SEED_FILE,
// MIKROMON_ALLOWED_ORIGINS (comma separated), MIKROMON_LOG_LEVEL (info),
// MIKROMON_LOG_FORMAT (text|json) and the MIKROMON_MQTT_* group.
func Load() (*Config, error) {
	broadcastInterval, err := durationEnv("MIKROMON_BROADCAST_INTERVAL", 3*time.Second)
	if err != nil {
		return nil, err
	}

	routerTimeout, err := durationEnv("MIKROMON_ROUTER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	concurrency := 4
	if v, ok := os.LookupEnv("MIKROMON_POLL_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("MIKROMON_POLL_CONCURRENCY must be a positive integer, got %q", v)
		}
		concurrency = n
	}

	var secretKey []byte
	if v := os.Getenv("MIKROMON_SECRET_KEY"); v != "" {
		secretKey, err = hex.DecodeString(v)
		if err != nil || len(secretKey) != 32 {
			return nil, fmt.Errorf("MIKROMON_SECRET_KEY must be 64 hex characters (32 bytes)")
		}
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("MIKROMON_LOG_LEVEL"); ok {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("MIKROMON_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	logJSON := false
	switch v := strings.ToLower(os.Getenv("MIKROMON_LOG_FORMAT")); v {
	case "", "text":
	case "json":
		logJSON = true
	default:
		return nil, fmt.Errorf("MIKROMON_LOG_FORMAT must be text or json, got %q", v)
	}

	return &Config{
		ListenAddr:        stringEnv("MIKROMON_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:            stringEnv("MIKROMON_DB_PATH", "mikrotikmonitoring.db"),
		BroadcastInterval: broadcastInterval,
		RouterTimeout:     routerTimeout,
		PollConcurrency:   concurrency,
		SecretKey:         secretKey,
		SeedFile:          os.Getenv("MIKROMON_SEED_FILE"),
		AllowedOrigins:    listEnv("MIKROMON_ALLOWED_ORIGINS"),
		LogLevel:          logLevel,
		LogJSON:           logJSON,
		MQTT: MQTTConfig{
			Broker:      os.Getenv("MIKROMON_MQTT_BROKER"),
			Username:    os.Getenv("MIKROMON_MQTT_USERNAME"),
			Password:    os.Getenv("MIKROMON_MQTT_PASSWORD"),
			TopicPrefix: stringEnv("MIKROMON_MQTT_TOPIC_PREFIX", "mikromon"),
		},
	}, nil
}

func stringEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func listEnv(key string) []string {
	out := []string{}
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
