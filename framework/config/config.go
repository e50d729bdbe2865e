package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the registry process configuration, read from REGISTRY_*
// environment variables.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Inspect  InspectConfig
	Registry RegistryConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

type InspectConfig struct {
	Enabled      bool
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Metrics      bool // expose /metrics next to the tree endpoints
}

type RegistryConfig struct {
	Definitions string // path of a YAML/JSON definitions file, optional
	Namespace   string // namespace of the root container
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	appEnv := env("REGISTRY_ENV", "local")
	format := "console"
	if appEnv == "production" {
		format = "json"
	}

	return &Config{
		App: AppConfig{
			Name:  env("REGISTRY_APP_NAME", "registry"),
			Env:   appEnv,
			Debug: envBool("REGISTRY_DEBUG", appEnv == "local"),
		},
		Log: LogConfig{
			Level:  env("REGISTRY_LOG_LEVEL", "info"),
			Format: env("REGISTRY_LOG_FORMAT", format),
		},
		Inspect: InspectConfig{
			Enabled:      envBool("REGISTRY_INSPECT_ENABLED", true),
			Addr:         env("REGISTRY_INSPECT_ADDR", ":8090"),
			ReadTimeout:  envDuration("REGISTRY_INSPECT_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: envDuration("REGISTRY_INSPECT_WRITE_TIMEOUT", 10*time.Second),
			Metrics:      envBool("REGISTRY_INSPECT_METRICS", true),
		},
		Registry: RegistryConfig{
			Definitions: env("REGISTRY_DEFINITIONS", ""),
			Namespace:   env("REGISTRY_ROOT_NAMESPACE", ""),
		},
	}
}

// IsProduction reports whether REGISTRY_ENV is "production".
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envDuration accepts Go durations ("2s", "150ms") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
