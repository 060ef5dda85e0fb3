package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/runebook/runebook/internal/sandbox"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LessonsConfig struct {
	Dir string `mapstructure:"dir"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type SandboxConfig struct {
	TimeoutMS      int    `mapstructure:"timeout_ms"`
	MemoryMB       int    `mapstructure:"memory_mb"`
	MaxOutputBytes int    `mapstructure:"max_output_bytes"`
	MaxConcurrent  int    `mapstructure:"max_concurrent"`
	Runtime        string `mapstructure:"runtime"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Lessons LessonsConfig `mapstructure:"lessons"`
	Storage StorageConfig `mapstructure:"storage"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("runebook")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.runebook")

	v.SetDefault("server.port", 8080)
	v.SetDefault("lessons.dir", "lessons")
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".runebook", "runebook.db"))
	v.SetDefault("sandbox.timeout_ms", 10_000)
	v.SetDefault("sandbox.memory_mb", 64)
	v.SetDefault("sandbox.max_output_bytes", sandbox.DefaultMaxOutputBytes)
	v.SetDefault("sandbox.max_concurrent", sandbox.DefaultPoolSize)
	v.SetDefault("sandbox.runtime", "node")

	// The lessons ship in-tree, so a bare binary with no config file should
	// still run on the defaults.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// SandboxConfig converts the file-level sandbox section into the sandbox
// package's config. Validation happens in sandbox.New.
func (c *Config) SandboxConfig() sandbox.Config {
	return sandbox.Config{
		Limits: sandbox.Limits{
			Timeout:        time.Duration(c.Sandbox.TimeoutMS) * time.Millisecond,
			MemoryMB:       c.Sandbox.MemoryMB,
			MaxOutputBytes: c.Sandbox.MaxOutputBytes,
		},
		DefaultRuntime: c.Sandbox.Runtime,
	}
}
