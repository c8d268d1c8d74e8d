package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

const (
	EnvS3AccessKeyID     = "COMPOSER_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "COMPOSER_S3_SECRET_ACCESS_KEY"
)

// Config represents the complete configuration structure
type Config struct {
	Composer ComposerConfig `yaml:"composer"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Theme    ThemeConfig    `yaml:"theme"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ComposerConfig holds the options recognized by a composer session.
type ComposerConfig struct {
	InitialValue      string `yaml:"initial_value" default:""`
	InitialDocumentID string `yaml:"initial_document_id" default:"default"`
	DefaultMode       string `yaml:"default_mode" default:"edit"`
	DefaultView       string `yaml:"default_view" default:"rich"`
	ReadOnly          bool   `yaml:"read_only" default:"false"`
	AutoFocus         bool   `yaml:"auto_focus" default:"true"`
	SpellCheck        bool   `yaml:"spell_check" default:"true"`

	// AutoSaveInterval of zero or less disables the timer.
	AutoSaveInterval time.Duration `yaml:"auto_save_interval" default:"5s"`

	StorageKeyPrefix     string `yaml:"storage_key_prefix" default:"editor"`
	Placeholder          string `yaml:"placeholder" default:"Start writing..."`
	Width                string `yaml:"width" default:"100%"`
	Theme                string `yaml:"theme" default:"light"`
	Debug                bool   `yaml:"debug" default:"false"`
	SanitizeEngineOutput bool   `yaml:"sanitize_engine_output" default:"true"`
}

type StorageConfig struct {
	Backend     string        `yaml:"backend" default:"sqlite"`
	Path        string        `yaml:"path" default:"./composer.db"`
	Dir         string        `yaml:"dir" default:"./documents"`
	Compression string        `yaml:"compression" default:"zstd"`
	Timeout     time.Duration `yaml:"timeout" default:"5s"`
	S3          S3Config      `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket" default:""`
	Endpoint        string `yaml:"endpoint" default:""`
	Region          string `yaml:"region" default:"auto"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`

	// Browser sessions unused for SessionIdleTimeout are closed. Sessions
	// whose cookie never came back are closed after one SessionSweepInterval.
	SessionIdleTimeout   time.Duration `yaml:"session_idle_timeout" default:"10m"`
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval" default:"30s"`
	MaxSessions          int           `yaml:"max_sessions" default:"256"`
}

type ThemeConfig struct {
	SyntaxHighlighting SyntaxConfig `yaml:"syntax_highlighting"`
	Renderer           string       `yaml:"renderer" default:"mmark"`
}

type SyntaxConfig struct {
	DefaultDark  string `yaml:"default_dark" default:"gruvbox"`
	DefaultLight string `yaml:"default_light" default:"catppuccin-latte"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvS3AccessKeyID); v != "" && cfg.Storage.S3.AccessKeyID == "" {
		cfg.Storage.S3.AccessKeyID = v
	}
	if v := os.Getenv(EnvS3SecretAccessKey); v != "" && cfg.Storage.S3.SecretAccessKey == "" {
		cfg.Storage.S3.SecretAccessKey = v
	}
}

func (c *Config) Validate() error {
	switch c.Composer.DefaultMode {
	case "edit", "read":
	default:
		return fmt.Errorf("invalid composer.default_mode %q: want edit or read", c.Composer.DefaultMode)
	}
	switch c.Composer.DefaultView {
	case "rich", "raw":
	default:
		return fmt.Errorf("invalid composer.default_view %q: want rich or raw", c.Composer.DefaultView)
	}
	if c.Composer.StorageKeyPrefix == "" {
		return fmt.Errorf("composer.storage_key_prefix must not be empty")
	}
	if c.Server.SessionIdleTimeout <= 0 || c.Server.SessionSweepInterval <= 0 {
		return fmt.Errorf("server.session_idle_timeout and server.session_sweep_interval must be positive")
	}
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("server.max_sessions must be at least 1")
	}
	switch c.Storage.Backend {
	case "memory", "fs", "sqlite":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("invalid storage.backend %q", c.Storage.Backend)
	}
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if d, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(d))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
