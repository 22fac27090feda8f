// Package config loads settings from flags, LEARNPATH_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/llm"
)

// EnvPrefix prefixes every environment variable, e.g. LEARNPATH_DB.
const EnvPrefix = "LEARNPATH"

type Config struct {
	DB      string        `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Learner LearnerConfig `mapstructure:"learner"`
	Paths   PathsConfig   `mapstructure:"paths"`
	LLM     LLMConfig     `mapstructure:"llm"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type LearnerConfig struct {
	Name string `mapstructure:"name"`
}

type PathsConfig struct {
	DefaultColor string `mapstructure:"default_color"`
	AutoSave     bool   `mapstructure:"auto_save"`
	ShowArchived bool   `mapstructure:"show_archived"`
}

type LLMConfig struct {
	Provider   string        `mapstructure:"provider"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Anthropic  VendorConfig  `mapstructure:"anthropic"`
	OpenAI     VendorConfig  `mapstructure:"openai"`
	Gemini     VendorConfig  `mapstructure:"gemini"`
	OpenRouter VendorConfig  `mapstructure:"openrouter"`
	Retry      RetryConfig   `mapstructure:"retry"`
}

type VendorConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"db":        "db",
	"log-level": "log.level",
	"log-file":  "log.file",
	"provider":  "llm.provider",
}

func setDefaults(v *viper.Viper) {
	lc := llm.DefaultConfig()
	ls := learning.DefaultSettings()

	v.SetDefault("db", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("learner.name", "")
	v.SetDefault("paths.default_color", ls.DefaultColor)
	v.SetDefault("paths.auto_save", ls.AutoSave)
	v.SetDefault("paths.show_archived", ls.ShowArchived)
	v.SetDefault("llm.provider", lc.Provider)
	v.SetDefault("llm.timeout", lc.Timeout)
	for vendor, model := range map[string]string{
		"anthropic":  lc.Anthropic.Model,
		"openai":     lc.OpenAI.Model,
		"gemini":     lc.Gemini.Model,
		"openrouter": lc.OpenRouter.Model,
	} {
		v.SetDefault("llm."+vendor+".api_key", "")
		v.SetDefault("llm."+vendor+".model", model)
		v.SetDefault("llm."+vendor+".base_url", "")
	}
	v.SetDefault("llm.retry.max_attempts", lc.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", lc.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", lc.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", lc.Retry.Multiplier)
}

// DefaultFile returns $XDG_CONFIG_HOME/learnpath/config.yaml, falling
// back to ~/.config.
func DefaultFile() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "learnpath", "config.yaml"), nil
}

// Load reads the configuration. An explicit file must exist; the default
// file is optional. Flags that were set on the command line override
// everything else.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := file != ""
	if !explicit {
		if f, err := DefaultFile(); err == nil {
			file = f
		}
	}
	read := ""
	if file != "" {
		_, err := os.Stat(file)
		switch {
		case err == nil:
			v.SetConfigFile(file)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", file, err)
			}
			read = file
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = read
	return &cfg, nil
}

// DBPath returns the configured database path, or the default one.
// The parent directory is created.
func (c *Config) DBPath() (string, error) {
	if c.DB == "" {
		return kvstore.DefaultDBPath()
	}
	return c.DB, kvstore.EnsureDir(c.DB)
}

// Settings returns the manager settings used before any are stored.
func (c *Config) Settings() learning.Settings {
	return learning.Settings{
		AutoSave:     c.Paths.AutoSave,
		ShowArchived: c.Paths.ShowArchived,
		DefaultColor: c.Paths.DefaultColor,
	}
}

// LLMConfig converts the llm section. When no provider is configured the
// vendors' conventional API key variables are probed.
func (c *Config) LLMConfig() llm.Config {
	l := c.LLM
	out := llm.Config{
		Provider:   l.Provider,
		Anthropic:  llm.AnthropicConfig{APIKey: l.Anthropic.APIKey, Model: l.Anthropic.Model},
		OpenAI:     llm.OpenAIConfig{APIKey: l.OpenAI.APIKey, Model: l.OpenAI.Model, BaseURL: l.OpenAI.BaseURL},
		Gemini:     llm.GeminiConfig{APIKey: l.Gemini.APIKey, Model: l.Gemini.Model},
		OpenRouter: llm.OpenRouterConfig{APIKey: l.OpenRouter.APIKey, Model: l.OpenRouter.Model, BaseURL: l.OpenRouter.BaseURL},
		Retry: llm.RetryConfig{
			MaxAttempts: l.Retry.MaxAttempts,
			InitialWait: l.Retry.InitialWait,
			MaxWait:     l.Retry.MaxWait,
			Multiplier:  l.Retry.Multiplier,
		},
		Timeout: l.Timeout,
	}
	out, _ = out.Discover()
	return out
}
