// Package config manages application configuration from environment variables,
// an optional config file, and default values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via
// environment variables prefixed with NUTRICHAT_ (e.g. NUTRICHAT_MONGO_URI)
// or through config.yaml.
type Config struct {
	// Env selects deployment behavior: production tightens the content
	// security policy and suppresses error detail in responses.
	Env string `mapstructure:"env" validate:"required,oneof=development production"`

	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	PublicDir       string        `mapstructure:"public_dir"       validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"required,min=1s,max=5m"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"required,min=1s,max=5m"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"     validate:"required,min=1s,max=10m"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,min=1s,max=1m"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"   validate:"required,min=1024"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// MongoConfig controls the conversation store connection.
type MongoConfig struct {
	URI              string        `mapstructure:"uri"                validate:"required"`
	Database         string        `mapstructure:"database"           validate:"required"`
	Collection       string        `mapstructure:"collection"         validate:"required"`
	MaxPoolSize      uint64        `mapstructure:"max_pool_size"      validate:"required,min=1,max=100"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"    validate:"required,min=1s,max=1m"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time" validate:"required,min=1s,max=30m"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"  validate:"required,min=1s,max=1m"`
}

// GeminiConfig controls the completion client.
type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"           validate:"required"`
	Model           string        `mapstructure:"model"             validate:"required"`
	Temperature     float32       `mapstructure:"temperature"       validate:"min=0,max=2"`
	TopP            float32       `mapstructure:"top_p"             validate:"min=0,max=1"`
	TopK            int32         `mapstructure:"top_k"             validate:"min=1,max=100"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens" validate:"required,min=1,max=8192"`
	Timeout         time.Duration `mapstructure:"timeout"           validate:"required,min=1s,max=5m"`
	MaxRetries      int           `mapstructure:"max_retries"       validate:"min=0,max=5"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       validate:"required,min=100ms,max=30s"`
}

// RateLimitConfig controls request admission.
type RateLimitConfig struct {
	Limit         int           `mapstructure:"limit"          validate:"required,min=1"`
	Window        time.Duration `mapstructure:"window"         validate:"required,min=1s"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required,min=1s"`
}

// MessagesConfig holds the user-facing reply strings, so deployments can
// localize without code changes.
type MessagesConfig struct {
	Busy         string `mapstructure:"busy"          validate:"required"`
	Malformed    string `mapstructure:"malformed"     validate:"required"`
	Overloaded   string `mapstructure:"overloaded"    validate:"required"`
	Timeout      string `mapstructure:"timeout"       validate:"required"`
	GeneralError string `mapstructure:"general_error" validate:"required"`
	RateLimited  string `mapstructure:"rate_limited"  validate:"required"`
	NotFound     string `mapstructure:"not_found"     validate:"required"`
	Fallback     string `mapstructure:"fallback"      validate:"required"`
}

// Production reports whether the service runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file (optional)
// 3. NUTRICHAT_* environment variables
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NUTRICHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults and env cover it.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.public_dir", "./public")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 45*time.Second)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", int64(8<<20))
	v.SetDefault("server.allowed_origins", []string{})

	// Empty defaults register the required keys so AutomaticEnv can fill
	// them; validation rejects them when still empty.
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "nutrichat")
	v.SetDefault("mongo.collection", "conversations")
	v.SetDefault("mongo.max_pool_size", uint64(10))
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("mongo.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("mongo.operation_timeout", 10*time.Second)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_p", 0.95)
	v.SetDefault("gemini.top_k", 40)
	v.SetDefault("gemini.max_output_tokens", 1024)
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay", 2*time.Second)

	v.SetDefault("ratelimit.limit", 50)
	v.SetDefault("ratelimit.window", time.Hour)
	v.SetDefault("ratelimit.sweep_interval", 10*time.Minute)

	v.SetDefault("messages.busy", "The assistant is busy right now. Please try again in a moment.")
	v.SetDefault("messages.malformed", "I couldn't understand that request. Please rephrase and try again.")
	v.SetDefault("messages.overloaded", "The assistant is temporarily overloaded. Please try again shortly.")
	v.SetDefault("messages.timeout", "That took too long to process. Please try again.")
	v.SetDefault("messages.general_error", "Something went wrong on our side. Please try again later.")
	v.SetDefault("messages.rate_limited", "You've sent quite a few messages. Please wait a while before sending more.")
	v.SetDefault("messages.not_found", "No conversation exists for that session.")
	v.SetDefault("messages.fallback", "I'm sorry, I couldn't come up with an answer to that. Could you rephrase it?")
}
