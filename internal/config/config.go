package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	GeminiAPIKey    string  `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	BaseURL         string  `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	// Seed is passed to providers when non-zero.
	Seed int `mapstructure:"seed" yaml:"seed"`

	// Document generation
	Locale     string `mapstructure:"locale" yaml:"locale"`
	Strict     bool   `mapstructure:"strict" yaml:"strict"`
	ListPolicy string `mapstructure:"list_policy" yaml:"list_policy"`
	Layout     string `mapstructure:"layout" yaml:"layout"`

	// Storage
	DraftsDir string `mapstructure:"drafts_dir" yaml:"drafts_dir"`
	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`

	// HTTP
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// API server
	ServerAddr       string `mapstructure:"server_addr" yaml:"server_addr"`
	ServerRatePerMin int    `mapstructure:"server_rate_per_min" yaml:"server_rate_per_min"`
	ServerBurst      int    `mapstructure:"server_burst" yaml:"server_burst"`
}

// Dir returns ~/.rams.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".rams"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.rams/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_provider", "openrouter")
	v.SetDefault("default_model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("seed", 0)
	v.SetDefault("locale", "en-GB")
	v.SetDefault("strict", false)
	v.SetDefault("list_policy", "replace")
	v.SetDefault("layout", "cards")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 120)
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("server_rate_per_min", 30)
	v.SetDefault("server_burst", 5)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("RAMS")
	v.AutomaticEnv()
	setDefaults(v)

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DraftsDir == "" {
		c.DraftsDir = filepath.Join(dir, "drafts")
	}
	if c.HistoryDB == "" {
		c.HistoryDB = filepath.Join(dir, "history.db")
	}
	return &c, nil
}

// ProviderKey returns the credential for provider, preferring the provider's
// conventional environment variable over the config file.
func (c *Global) ProviderKey(provider string) string {
	switch provider {
	case "openai":
		if k := os.Getenv("OPENAI_API_KEY"); k != "" {
			return k
		}
		return c.APIKey
	case "gemini":
		if k := os.Getenv("GEMINI_API_KEY"); k != "" {
			return k
		}
		return c.GeminiAPIKey
	case "ollama":
		return ""
	default:
		if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
			return k
		}
		return c.APIKey
	}
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, v string) error{
	"api_key":             func(c *Global, v string) error { c.APIKey = v; return nil },
	"gemini_api_key":      func(c *Global, v string) error { c.GeminiAPIKey = v; return nil },
	"default_provider":    func(c *Global, v string) error { return setProvider(c, v) },
	"default_model":       func(c *Global, v string) error { c.DefaultModel = v; return nil },
	"base_url":            func(c *Global, v string) error { c.BaseURL = v; return nil },
	"max_tokens":          intSetter(func(c *Global) *int { return &c.MaxTokens }),
	"temperature":         func(c *Global, v string) error { return setTemperature(c, v) },
	"seed":                intSetter(func(c *Global) *int { return &c.Seed }),
	"locale":              func(c *Global, v string) error { c.Locale = v; return nil },
	"strict":              func(c *Global, v string) error { return setBool(&c.Strict, v) },
	"list_policy":         func(c *Global, v string) error { return setChoice(&c.ListPolicy, v, "replace", "union") },
	"layout":              func(c *Global, v string) error { return setChoice(&c.Layout, v, "cards", "classic") },
	"drafts_dir":          func(c *Global, v string) error { c.DraftsDir = v; return nil },
	"history_db":          func(c *Global, v string) error { c.HistoryDB = v; return nil },
	"http_timeout_sec":    intSetter(func(c *Global) *int { return &c.HTTPTimeoutSec }),
	"ollama_host":         func(c *Global, v string) error { c.OllamaHost = v; return nil },
	"ollama_timeout_sec":  intSetter(func(c *Global) *int { return &c.OllamaTimeoutSec }),
	"server_addr":         func(c *Global, v string) error { c.ServerAddr = v; return nil },
	"server_rate_per_min": intSetter(func(c *Global) *int { return &c.ServerRatePerMin }),
	"server_burst":        intSetter(func(c *Global) *int { return &c.ServerBurst }),
}

// Set assigns key from its string form, validating enumerated values.
func (c *Global) Set(key, value string) error {
	set, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(c, strings.TrimSpace(value))
}

func intSetter(field func(*Global) *int) func(*Global, string) error {
	return func(c *Global, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("expected a non-negative integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

func setTemperature(c *Global, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %q", v)
	}
	c.Temperature = f
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("expected true or false, got %q", v)
	}
	*dst = b
	return nil
}

func setProvider(c *Global, v string) error {
	return setChoice(&c.DefaultProvider, v, "openrouter", "openai", "gemini", "ollama")
}

func setChoice(dst *string, v string, choices ...string) error {
	v = strings.ToLower(v)
	for _, ch := range choices {
		if v == ch {
			*dst = v
			return nil
		}
	}
	return fmt.Errorf("invalid value %q (use %s)", v, strings.Join(choices, ", "))
}
