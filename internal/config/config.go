package config

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Config holds the full application configuration, loaded from an optional
// config file and CONTENTSTORE_* environment variables.
type Config struct {
	Env string `mapstructure:"env"`

	DB struct {
		Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
		DSN    string `mapstructure:"dsn" validate:"required"`
	} `mapstructure:"db"`

	Storage struct {
		Backend  string `mapstructure:"backend" validate:"oneof=fs s3"`
		Root     string `mapstructure:"root"`
		Bucket   string `mapstructure:"bucket"`
		Prefix   string `mapstructure:"prefix"`
		Region   string `mapstructure:"region"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"storage"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Upload struct {
		MaxSize      int64    `mapstructure:"max_size" validate:"gt=0"`
		AllowedTypes []string `mapstructure:"allowed_types" validate:"min=1"`
	} `mapstructure:"upload"`

	Extract struct {
		MaxDepth int `mapstructure:"max_depth" validate:"gt=0"`
	} `mapstructure:"extract"`

	Compression string `mapstructure:"compression" validate:"omitempty,oneof=gzip brotli lz4"`

	HashIndex struct {
		Backend    string `mapstructure:"backend" validate:"oneof=db badger"`
		BadgerPath string `mapstructure:"badger_path"`
	} `mapstructure:"hash_index"`

	Jobs struct {
		SweepSchedule    string        `mapstructure:"sweep_schedule"`
		CoalesceSchedule string        `mapstructure:"coalesce_schedule"`
		CoalesceWindow   time.Duration `mapstructure:"coalesce_window"`
	} `mapstructure:"jobs"`
}

// Load reads the configuration. A missing config file is not an error,
// environment variables and defaults are enough to run.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("env", "dev")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", ".data/contentstore.db")
	v.SetDefault("storage.backend", "fs")
	v.SetDefault("storage.root", ".data/storage")
	v.SetDefault("upload.max_size", 2<<20)
	v.SetDefault("upload.allowed_types", []string{"jpeg", "jpg", "png", "gif", "webp"})
	v.SetDefault("extract.max_depth", 1000)
	v.SetDefault("hash_index.backend", "db")
	v.SetDefault("jobs.coalesce_window", 10*time.Minute)

	v.SetConfigName("contentstore")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/contentstore")

	v.SetEnvPrefix("CONTENTSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
