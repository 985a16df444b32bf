package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"netloc/internal/logger"
	"netloc/internal/resolver"
	"netloc/internal/retry"
	"netloc/internal/validator"

	"github.com/spf13/viper"
)

var (
	// AppName is the name of the application
	AppName = "netloc"

	// EnvPrefix prefixes every environment variable bound to a config key
	EnvPrefix = "NETLOC"
)

// Failure policies of the supervising loop
const (
	OnFailureRestart = "restart"
	OnFailureExit    = "exit"
)

// LogConfig represents logging configuration
type LogConfig = logger.Config

// Config represents the netloc configuration
type Config struct {
	Delay        time.Duration  `mapstructure:"delay" validate:"gt=0"`
	RestartDelay time.Duration  `mapstructure:"restart_delay" validate:"gte=0"`
	OnFailure    string         `mapstructure:"on_failure" validate:"oneof=restart exit"`
	Resolver     ResolverConfig `mapstructure:"resolver"`
	Notify       NotifyConfig   `mapstructure:"notify"`
	Status       StatusConfig   `mapstructure:"status"`
	Log          LogConfig      `mapstructure:"log"`
}

// ResolverConfig represents the IP resolution configuration
type ResolverConfig struct {
	URL           string        `mapstructure:"url" validate:"required,httpurl"`
	MaxBodySize   int64         `mapstructure:"max_body_size"` // bytes, <= 0 disables the cap
	AddressFamily string        `mapstructure:"address_family" validate:"oneof=any ipv4 ipv6"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// StatusConfig represents the status API configuration
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// Load loads configuration from the config file (if any), environment
// variables and overrides, in increasing order of precedence. Overrides
// are keyed by config key, e.g. "resolver.url".
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// readConfigFile reads an explicit config file, or the first config.yaml
// found in the search paths. A missing file is only an error when the
// path was given explicitly.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/" + AppName)
	v.AddConfigPath("$HOME/." + AppName)
	v.AddConfigPath("/etc/" + AppName)
	if ex, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(ex))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// setDefaults sets default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("delay", 10*time.Minute)
	v.SetDefault("restart_delay", 10*time.Second)
	v.SetDefault("on_failure", OnFailureRestart)

	v.SetDefault("resolver.max_body_size", resolver.DefaultMaxBodySize)
	v.SetDefault("resolver.address_family", "any")
	v.SetDefault("resolver.timeout", 30*time.Second)

	v.SetDefault("status.enabled", false)
	v.SetDefault("status.addr", "127.0.0.1:9464")

	logDefaults := logger.DefaultConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.output", logDefaults.Output)
	v.SetDefault("log.max_size", logDefaults.MaxSize)
	v.SetDefault("log.max_backups", logDefaults.MaxBackups)
	v.SetDefault("log.max_age", logDefaults.MaxAge)

	retryDefaults := retry.DefaultRetryConfig()
	v.SetDefault("notify.retry.enable", retryDefaults.Enable)
	v.SetDefault("notify.retry.initial_attempts", retryDefaults.InitialAttempts)
	v.SetDefault("notify.retry.initial_interval", retryDefaults.InitialInterval)
	v.SetDefault("notify.retry.minute_interval", retryDefaults.MinuteInterval)
	v.SetDefault("notify.retry.hourly_interval", retryDefaults.HourlyInterval)

	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("notify.webhook.method", "POST")
	v.SetDefault("notify.telegram.api_url", "https://api.telegram.org")
	v.SetDefault("notify.cloudflare.ttl", 60)
	v.SetDefault("notify.cloudflare.comment", "managed by netloc")
	v.SetDefault("notify.redis.channel", "netloc:ip")
	v.SetDefault("notify.redis.dial_timeout", 5*time.Second)
	v.SetDefault("notify.kafka.topic", "netloc.ip.change")
	v.SetDefault("notify.rabbitmq.routing_key", "netloc.ip.change")
	v.SetDefault("notify.rabbitmq.heartbeat", 10*time.Second)
	v.SetDefault("notify.sql.driver", "sqlite3")
	v.SetDefault("notify.sql.migrate", true)
	v.SetDefault("notify.elasticsearch.index", "netloc-ip-changes")
	v.SetDefault("notify.mongodb.database", AppName)
	v.SetDefault("notify.mongodb.collection", "ip_changes")
}

// legacyEnv lists the short environment variable names accepted for the
// most common keys, in addition to the NETLOC_ prefixed ones.
var legacyEnv = map[string]string{
	"resolver.url":               "URL",
	"delay":                      "DELAY",
	"resolver.max_body_size":     "MAX_BODY_SIZE",
	"resolver.address_family":    "REQUESTED_ADDRESS_TYPE",
	"notify.discord.webhook_url": "DISCORD_WEBHOOK_URL",
	"notify.http.url":            "HTTP_REQUEST_URL",
}

// bindEnv binds every config key to NETLOC_<KEY> (dots become underscores)
// and the legacy names above. The prefixed name wins when both are set.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range keys(reflect.TypeOf(Config{}), "") {
		names := []string{strings.ToUpper(EnvPrefix + "_" + strings.ReplaceAll(key, ".", "_"))}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

// keys walks the mapstructure tags of t and returns dotted leaf keys
func keys(t reflect.Type, prefix string) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		switch {
		case ft.Kind() == reflect.Map:
			// maps are only read from the config file
			continue
		case ft.Kind() == reflect.Struct && ft != reflect.TypeOf(time.Time{}):
			out = append(out, keys(ft, key)...)
			continue
		}
		out = append(out, key)
	}
	return out
}

// normalize canonicalizes values that accept several spellings
func (c *Config) normalize() {
	if f, err := resolver.ParseFamily(c.Resolver.AddressFamily); err == nil {
		c.Resolver.AddressFamily = f.String()
	}
	c.OnFailure = strings.ToLower(strings.TrimSpace(c.OnFailure))
	c.Log.SetDefaults()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}

	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("invalid notify configuration: %w", err)
	}

	return nil
}
