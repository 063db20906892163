package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Language      string        `mapstructure:"language"`
	FormHint      string        `mapstructure:"form_hint"`
	OracleTimeout time.Duration `mapstructure:"oracle_timeout"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

func loadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FORMFILL")
	v.AutomaticEnv()

	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("language", "auto")
	v.SetDefault("oracle_timeout", 30*time.Second)
	v.SetDefault("session_ttl", 30*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if config.APIKey == "" {
		config.APIKey = v.GetString("API_KEY")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("api_key is required (config file or FORMFILL_API_KEY)")
	}
	return &config, nil
}
