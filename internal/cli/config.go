package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/deptree/pkg/server"
)

const (
	envPrefix = "DEPTREE"

	defaultBackend = backendFile
	defaultTTL     = 24 * time.Hour
	defaultAddr    = ":8080"
	defaultJobs    = 1
)

// Cache backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config is the merged configuration from file, environment and flags.
type Config struct {
	Cache  CacheConfig  `mapstructure:"cache"`
	Expand ExpandConfig `mapstructure:"expand"`
	Serve  ServeConfig  `mapstructure:"serve"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	Dir      string        `mapstructure:"dir"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ExpandConfig holds expansion defaults.
type ExpandConfig struct {
	MaxNodes int `mapstructure:"max_nodes"`
	Jobs     int `mapstructure:"jobs"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr    string `mapstructure:"addr"`
	MaxBody int64  `mapstructure:"max_body"`
}

// newViper returns a viper instance with deptree's defaults and
// environment binding. DEPTREE_CACHE_BACKEND sets cache.backend.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("cache.backend", defaultBackend)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", defaultTTL)
	v.SetDefault("expand.max_nodes", 0)
	v.SetDefault("expand.jobs", defaultJobs)
	v.SetDefault("serve.addr", defaultAddr)
	v.SetDefault("serve.max_body", server.DefaultMaxBody)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readConfig loads the config file into v. An explicit file must exist;
// otherwise the first of $XDG_CONFIG_HOME/deptree/config.yaml and
// ./.deptree.yaml that exists is used, and having neither is fine.
func readConfig(v *viper.Viper, explicit string) error {
	v.SetConfigType("yaml")
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", explicit, err)
		}
		return nil
	}

	for _, path := range configCandidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	return nil
}

func configCandidates() []string {
	var out []string
	if dir, err := configDir(); err == nil {
		out = append(out, filepath.Join(dir, "config.yaml"))
	}
	return append(out, ".deptree.yaml")
}

// configDir returns $XDG_CONFIG_HOME/deptree, defaulting to ~/.config/deptree.
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// flagKeys maps command-line flags to config keys. Keys use snake_case so
// flags, env and files share one spelling.
var flagKeys = map[string]string{
	"max-nodes": "expand.max_nodes",
	"jobs":      "expand.jobs",
	"addr":      "serve.addr",
	"max-body":  "serve.max_body",
}

// bindFlags makes config keys follow the matching flags of the running
// command when they are set on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// decodeConfig unmarshals v and validates the result.
func decodeConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	switch c.Cache.Backend {
	case backendFile, backendNone:
	case backendRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q (must be one of: file, redis, none)", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL))
	}
	if c.Expand.MaxNodes < 0 {
		errs = append(errs, fmt.Errorf("expand.max_nodes must not be negative, got %d", c.Expand.MaxNodes))
	}
	if c.Expand.Jobs < 0 {
		errs = append(errs, fmt.Errorf("expand.jobs must not be negative, got %d", c.Expand.Jobs))
	}
	return errors.Join(errs...)
}
