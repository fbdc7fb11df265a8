package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime configuration, read from environment variables.
type Config struct {
	// Server
	Port        string `env:"PORT" env-default:"8080"`
	BindAddr    string `env:"BIND_ADDR" env-default:"0.0.0.0"`
	Env         string `env:"ENVIRONMENT" env-default:"production"`
	CORSOrigins string `env:"CORS_ORIGINS" env-default:"*"`

	// Database
	DatabaseURL   string        `env:"DATABASE_URL" env-required:"true"`
	DBMaxConns    int32         `env:"DB_MAX_CONNS" env-default:"10"`
	DBConnTimeout time.Duration `env:"DB_CONN_TIMEOUT" env-default:"5s"`

	// Presence tracker
	PresenceTimeout time.Duration `env:"PRESENCE_TIMEOUT" env-default:"30s"`
	PresenceSweep   time.Duration `env:"PRESENCE_SWEEP_INTERVAL" env-default:"10s"`

	// FirstWatch ingestion
	IngestBaseURL string `env:"INGEST_BASE_URL" env-default:"https://subscriber.firstwatch.net/publiceventlisting/EventListing"`
	IngestToken   string `env:"DISPATCH_API_TOKEN" env-default:""`

	// INGEST_API_KEYS guards POST /api/ingest/run, format "name:key,name:key".
	// Empty disables the endpoint.
	IngestAPIKeysRaw string `env:"INGEST_API_KEYS" env-default:""`

	// IngestAPIKeys is parsed from IngestAPIKeysRaw: apiKey -> caller name.
	IngestAPIKeys map[string]string
}

// Load reads configuration from the environment and fails fast on anything
// malformed or missing.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	keys, err := parseAPIKeys(cfg.IngestAPIKeysRaw)
	if err != nil {
		return nil, err
	}
	cfg.IngestAPIKeys = keys

	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// Origins splits the configured CORS origin list.
func (c *Config) Origins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAPIKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return keys, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf(`INGEST_API_KEYS must be "name:key,name:key"`)
		}
		name := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if name == "" || key == "" {
			return nil, fmt.Errorf(`INGEST_API_KEYS must be "name:key,name:key"`)
		}
		keys[key] = name
	}
	return keys, nil
}
