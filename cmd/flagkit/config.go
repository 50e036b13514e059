package main

import (
	"os"
	"strings"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/config"
	"github.com/dmitrymomot/flagkit/pkg/httpserver"
)

// envFilesVar names a comma-separated list of env files read before the
// configuration is parsed. Variables already set in the process win.
const envFilesVar = "FLAG_ENV_FILES"

type appConfig struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Name string `env:"APP_NAME" envDefault:"flagkit"`

	Store     string `env:"FLAG_STORE" envDefault:"memory"` // postgres, sqlite, mongo or memory
	SQLiteDSN string `env:"SQLITE_DSN" envDefault:"flagkit.db"`

	Cache         string        `env:"FLAG_CACHE" envDefault:"memory"` // redis, memory or none
	CacheTTL      time.Duration `env:"FLAG_CACHE_TTL" envDefault:"1h"`
	CacheSize     int           `env:"FLAG_CACHE_SIZE" envDefault:"1024"`
	CacheKeyspace string        `env:"FLAG_CACHE_KEYSPACE" envDefault:"feature_flags"`

	WebhookURL     string            `env:"FLAG_WEBHOOK_URL"`
	WebhookSecret  string            `env:"FLAG_WEBHOOK_SECRET"`
	WebhookExclude []string          `env:"FLAG_WEBHOOK_EXCLUDE" envSeparator:","`
	WebhookHeaders map[string]string `env:"FLAG_WEBHOOK_HEADERS"` // key:value,key2:value2
	WebhookTimeout time.Duration     `env:"FLAG_WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookRetries int               `env:"FLAG_WEBHOOK_MAX_RETRIES" envDefault:"3"`

	HTTP httpserver.Config
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if files := os.Getenv(envFilesVar); files != "" {
		if err := config.LoadEnv(strings.Split(files, ",")...); err != nil {
			return cfg, err
		}
	}
	err := config.Load(&cfg)
	return cfg, err
}
