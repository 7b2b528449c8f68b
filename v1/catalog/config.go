package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "RFQCLIENT"

// Config holds the client configuration. It is resolved once, at startup,
// from the environment and an optional .env file.
type Config struct {
	BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
	RFQBaseURL string        `mapstructure:"rfq_base_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Debug      bool          `mapstructure:"debug"`
	LogLevel   string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	Logger *zap.Logger `mapstructure:"-" validate:"-"`
}

// The base URL RFQs are served from; the main service unless overridden
func (c Config) rfqBaseURL() string {
	if c.RFQBaseURL != "" {
		return c.RFQBaseURL
	}
	return c.BaseURL
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// LoadConfig reads the configuration from RFQCLIENT_* environment variables.
// The named env files, or .env when none are named, are loaded first; they
// never override variables already set. Missing env files are skipped.
func LoadConfig(envfiles ...string) (Config, error) {
	if len(envfiles) == 0 {
		envfiles = []string{".env"}
	}
	for _, f := range envfiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)

	v.SetDefault("base_url", "http://localhost:9000")
	v.SetDefault("rfq_base_url", "")
	v.SetDefault("timeout", "0s")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")

	v.AutomaticEnv()

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return conf, nil
}
