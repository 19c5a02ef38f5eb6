package bot

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/fishbot/core/config"
	coredatabase "github.com/m3rciful/fishbot/core/database"
	"github.com/m3rciful/fishbot/core/telegram/state"
	"github.com/m3rciful/fishbot/internal/orders"
	"github.com/m3rciful/fishbot/internal/strapi"
)

// DefaultCMSURL is used when neither cms.base_url nor STRAPI_URL is set.
const DefaultCMSURL = "http://localhost:1337"

// CMSConfig points the bot at the Strapi instance.
type CMSConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"STRAPI_URL"`
	APIToken       string `yaml:"api_token" envconfig:"STRAPI_API_TOKEN"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"STRAPI_TIMEOUT_SECONDS"`
}

// Timeout returns the per-request CMS timeout.
func (c CMSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionsConfig selects where conversation sessions are kept.
type SessionsConfig struct {
	// Backend is one of memory, bolt, postgres.
	Backend  string `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	BoltPath string `yaml:"bolt_path" envconfig:"SESSIONS_BOLT_PATH"`
}

// OrdersConfig enables publishing of order requests. An empty AMQPURL disables it.
type OrdersConfig struct {
	AMQPURL string `yaml:"amqp_url" envconfig:"ORDERS_AMQP_URL"`
	Queue   string `yaml:"queue" envconfig:"ORDERS_QUEUE"`
}

// HealthConfig enables the HTTP health endpoint when Listen is set.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config is the complete bot configuration: the core sections plus the shop ones.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	CMS      CMSConfig           `yaml:"cms"`
	Sessions SessionsConfig      `yaml:"sessions"`
	Database coredatabase.Config `yaml:"database"`
	Orders   OrdersConfig        `yaml:"orders"`
	Health   HealthConfig        `yaml:"health"`
}

// CoreConfig exposes the embedded core section to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads YAML from path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	cfg.CMS.BaseURL = strings.TrimSpace(cfg.CMS.BaseURL)
	if cfg.CMS.BaseURL == "" {
		cfg.CMS.BaseURL = DefaultCMSURL
	}
	u, err := url.Parse(cfg.CMS.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("cms.base_url must be an http(s) URL, got %q", cfg.CMS.BaseURL)
	}
	switch {
	case cfg.CMS.TimeoutSeconds < 0:
		return fmt.Errorf("cms.timeout_seconds must be >= 0")
	case cfg.CMS.TimeoutSeconds == 0:
		cfg.CMS.TimeoutSeconds = int(strapi.DefaultTimeout / time.Second)
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Sessions.Backend))
	switch backend {
	case "":
		backend = state.BackendMemory
	case state.BackendMemory:
	case state.BackendBolt:
		if strings.TrimSpace(cfg.Sessions.BoltPath) == "" {
			cfg.Sessions.BoltPath = "data/sessions.db"
		}
	case state.BackendPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required when sessions.backend is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, bolt, postgres", cfg.Sessions.Backend)
	}
	cfg.Sessions.Backend = backend

	if strings.TrimSpace(cfg.Orders.Queue) == "" {
		cfg.Orders.Queue = orders.DefaultQueue
	}
	return nil
}

// UsesDatabase reports whether PostgreSQL must be connected and migrated.
func (c *Config) UsesDatabase() bool {
	return c.Sessions.Backend == state.BackendPostgres
}
