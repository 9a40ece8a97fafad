package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the full environment-driven configuration, loaded once at startup
// and passed down explicitly. No package holds a config singleton.
type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`

	// FrontendOrigin is the SPA origin allowed by CORS.
	FrontendOrigin string `env:"FRONTEND_ORIGIN, default=http://localhost:5173"`

	Mongo  MongoConfig
	Redis  RedisConfig
	SMTP   SMTPConfig
	OpenAI OpenAIConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=lumina"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST, default=localhost"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM, default=no-reply@lumina.chat"`
	Workers  int    `env:"SMTP_WORKERS, default=4"`
}

type OpenAIConfig struct {
	APIKey     string `env:"OPENAI_API_KEY, required"`
	ChatModel  string `env:"OPENAI_CHAT_MODEL"`
	ImageModel string `env:"OPENAI_IMAGE_MODEL"`
}

// Production reports whether the service runs with production hardening
// (secure cookies).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
