package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	ResendAPIKey      string `env:"RESEND_API_KEY,required=true"`
	SenderEmail       string `env:"SENDER_EMAIL,required=true"`
	SenderName        string `env:"SENDER_NAME,default="`
	ReplyTo           string `env:"REPLY_TO,default="`
	MaxSendAttempts   int    `env:"MAX_SEND_ATTEMPTS,default=3"`
	SendTimeoutMillis int    `env:"SEND_TIMEOUT_MS,default=10000"`
	RetryBaseMillis   int    `env:"RETRY_BASE_DELAY_MS,default=1000"`
	RetryMaxMillis    int    `env:"RETRY_MAX_DELAY_MS,default=10000"`
	MaxRecordAttempts int    `env:"MAX_RECORD_ATTEMPTS,default=5"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
	AllowedOrigins    string `env:"ALLOWED_ORIGINS,default=*"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutMillis) * time.Millisecond
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseMillis) * time.Millisecond
}

func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxMillis) * time.Millisecond
}
