package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// BoothConfig declares one interpreter booth of the fleet. Booth ids are
// assigned out-of-band and must stay stable across restarts.
type BoothConfig struct {
	ID   int    `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

type Config struct {
	Mode   string `mapstructure:"mode"`
	Port   int    `mapstructure:"port"`
	Secret string `mapstructure:"secret"`

	Booths []BoothConfig `mapstructure:"booths"`

	// DialProgress is the simulated booths' lifecycle step. Zero keeps
	// dialed calls in Dialing until driven externally.
	DialProgress time.Duration `mapstructure:"dial_progress"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("dial_progress", "2s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
