package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	// EncryptionKey encrypts stored aggregation-provider access tokens.
	// When empty, tokens are persisted as-is.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type PlaidConfig struct {
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
	Environment string `mapstructure:"environment"` // sandbox / development / production
	// BaseURL overrides the environment-derived endpoint when set.
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Plaid    PlaidConfig    `mapstructure:"plaid"`
	Log      LogConfig      `mapstructure:"log"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load reads configuration from the given file path (e.g. "config.yaml")
// plus environment overrides (FINTRACK_DATABASE_URL, FINTRACK_JWT_SECRET, ...).
// The config file is optional; required keys missing from both sources
// fail the load so the process exits at startup.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		v.SetEnvPrefix("FINTRACK")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		v.SetDefault("server.address", "0.0.0.0")
		v.SetDefault("server.port", 8000)
		v.SetDefault("jwt.expire_hours", 24)
		v.SetDefault("plaid.environment", "sandbox")
		v.SetDefault("log.level", "info")

		// AutomaticEnv only resolves keys viper already knows about.
		for _, key := range []string{
			"server.mode", "database.url", "database.log_mode",
			"jwt.secret", "security.encryption_key",
			"plaid.client_id", "plaid.secret", "plaid.base_url",
		} {
			_ = v.BindEnv(key)
		}

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, notFound := readErr.(viper.ConfigFileNotFoundError); !notFound {
				err = fmt.Errorf("read config: %w", readErr)
				return
			}
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		if c.Database.URL == "" {
			err = fmt.Errorf("database.url is required")
			return
		}
		if c.JWT.Secret == "" {
			err = fmt.Errorf("jwt.secret is required")
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
