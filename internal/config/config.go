package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Recognition
	ModelPath        string `env:"VOSK_MODEL_PATH" envDefault:"./models/vosk-model-small-en-us-0.15"`
	TargetSampleRate int    `env:"TARGET_SAMPLE_RATE" envDefault:"16000"`

	// Synthesis
	TTSCacheEnabled bool          `env:"TTS_CACHE_ENABLED" envDefault:"true"`
	TTSEndpoint     string        `env:"TTS_ENDPOINT" envDefault:"https://translate.google.com/translate_tts"`
	TTSTimeout      time.Duration `env:"TTS_TIMEOUT" envDefault:"15s"`

	// Attempt persistence; empty disables the attempts store.
	DatabaseURL string `env:"DATABASE_URL"`

	S3 S3Config `envPrefix:"S3_"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// S3Config points at any S3-compatible object store (MinIO included).
type S3Config struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"BUCKET" envDefault:"vocabulary-audio"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Secure    bool   `env:"SECURE" envDefault:"false"`
}

// Scheme returns the URL scheme matching the secure flag.
func (s S3Config) Scheme() string {
	if s.Secure {
		return "https"
	}
	return "http"
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	HTTPAddr  string
	LogLevel  string
	ModelPath string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file > defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.ModelPath != "" {
		cfg.ModelPath = overrides.ModelPath
	}

	return cfg, nil
}
