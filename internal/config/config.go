package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/howl/internal/provider/mockapi"
	"github.com/davidbz/howl/internal/provider/openai"
)

// Config represents the gateway plugin layer configuration.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Hooks   HooksConfig
	Redis   RedisConfig
	OpenAI  openai.Config
	MockAPI mockapi.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// HooksConfig selects which built-in hooks run and how.
type HooksConfig struct {
	ResponsePrefix   string   `env:"HOOK_RESPONSE_PREFIX"`
	BlockedWords     []string `env:"HOOK_BLOCKED_WORDS"      envSeparator:","`
	RefinerModel     string   `env:"HOOK_REFINER_MODEL"`
	SecondaryTimeout int      `env:"HOOK_SECONDARY_TIMEOUT"  envDefault:"15"`
}

// RedisConfig contains usage-store settings.
type RedisConfig struct {
	Enabled   bool   `env:"REDIS_ENABLED"    envDefault:"false"`
	Addr      string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB"         envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"howl"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*HooksConfig
	*RedisConfig
	OpenAI  *openai.Config
	MockAPI *mockapi.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Hooks,
		&cfg.Redis,
		&cfg.OpenAI,
		&cfg.MockAPI,
	}
}
