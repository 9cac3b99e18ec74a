package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	OpenAI     ProviderConfig   `mapstructure:"openai"`
	Gemini     ProviderConfig   `mapstructure:"gemini"`
	Generation GenerationConfig `mapstructure:"generation"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge"`
	Log        LogConfig        `mapstructure:"log"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// ProviderConfig holds one LLM provider's credentials and sampling settings.
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

func (p ProviderConfig) Enabled() bool { return p.APIKey != "" }

type GenerationConfig struct {
	DefaultModel string        `mapstructure:"default_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type KnowledgeConfig struct {
	// Path to a YAML knowledge base replacing the built-in one. Empty uses the built-in.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("gemini.max_tokens", 500)
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("generation.default_model", "gpt-4")
	v.SetDefault("generation.timeout", 60*time.Second)
	v.SetDefault("knowledge.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads path when it is non-empty, then applies environment overrides.
// Nested keys map to upper-case variables with underscores, e.g. GENERATION_TIMEOUT.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Well-known provider variables win over the file.
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if apiKey := v.GetString("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks ranges. Missing credentials are not an error here: commands that
// never call a provider work without them.
func (c *Config) Validate() error {
	var errs []error
	providers := []struct {
		name string
		cfg  ProviderConfig
	}{{"openai", c.OpenAI}, {"gemini", c.Gemini}}
	for _, p := range providers {
		name := p.name
		if p.cfg.MaxTokens < 0 {
			errs = append(errs, fmt.Errorf("%s.max_tokens must not be negative", name))
		}
		if p.cfg.Temperature < 0 || p.cfg.Temperature > 2 {
			errs = append(errs, fmt.Errorf("%s.temperature %.2f out of range [0,2]", name, p.cfg.Temperature))
		}
	}
	if strings.TrimSpace(c.Generation.DefaultModel) == "" {
		errs = append(errs, errors.New("generation.default_model is required"))
	}
	if c.Generation.Timeout < 0 {
		errs = append(errs, errors.New("generation.timeout must not be negative"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
