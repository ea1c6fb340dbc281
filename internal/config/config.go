package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"630s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// Backends. A backend with an empty URL/key is simply not offered.
	CaptionsURL     string        `env:"CAPTIONS_URL"`
	CaptionsTimeout time.Duration `env:"CAPTIONS_TIMEOUT" envDefault:"30s"`

	WhisperURL     string        `env:"WHISPER_URL"`
	WhisperAPIKey  string        `env:"WHISPER_API_KEY"`
	WhisperTimeout time.Duration `env:"WHISPER_TIMEOUT" envDefault:"600s"`

	SupadataURL     string        `env:"SUPADATA_URL" envDefault:"https://api.supadata.ai/v1/youtube/transcript"`
	SupadataAPIKey  string        `env:"SUPADATA_API_KEY"`
	SupadataTimeout time.Duration `env:"SUPADATA_TIMEOUT" envDefault:"60s"`

	DefaultService string `env:"DEFAULT_SERVICE" envDefault:"captions"`

	MetadataTimeout time.Duration `env:"METADATA_TIMEOUT" envDefault:"10s"`

	// Store. Driver "file" (default) or "postgres".
	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	StorePath   string `env:"STORE_PATH" envDefault:"./data/transcripts.json"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Optional MQTT lifecycle event publishing.
	MQTTBrokerURL   string `env:"MQTT_BROKER_URL"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID" envDefault:"yt-scribe"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"yt-scribe"`
	MQTTUsername    string `env:"MQTT_USERNAME"`
	MQTTPassword    string `env:"MQTT_PASSWORD"`

	// Optional S3 archival of saved transcripts.
	S3Bucket    string `env:"S3_BUCKET"`
	S3Prefix    string `env:"S3_PREFIX" envDefault:"transcripts"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	HTTPAddr  string
	LogLevel  string
	StorePath string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.StorePath != "" {
		cfg.StorePath = overrides.StorePath
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "file":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want file or postgres)", c.StoreDriver)
	}
	switch c.DefaultService {
	case "captions", "whisper", "supadata":
	default:
		return fmt.Errorf("unknown DEFAULT_SERVICE %q (want captions, whisper, or supadata)", c.DefaultService)
	}
	return nil
}
