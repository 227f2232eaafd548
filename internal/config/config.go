// Package config loads graphd's configuration from file and environment,
// following the teacher's viper-based layering (defaults, file, env
// override) almost verbatim in shape.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all graphd configuration loaded from file and environment.
type Config struct {
	Engines   EnginesConfig `mapstructure:"engines"`
	Cache     CacheConfig   `mapstructure:"cache"`
	Server    ServerConfig  `mapstructure:"server"`
	LogFormat string        `mapstructure:"log_format"`
	LogLevel  string        `mapstructure:"log_level"`
}

// EnginesConfig holds one sub-config per adapter plus the fallback choice.
type EnginesConfig struct {
	Native     CypherConfig     `mapstructure:"native"`
	Memory     CypherConfig     `mapstructure:"memory"`
	Relational RelationalConfig `mapstructure:"relational"`
	Default    string           `mapstructure:"default"`
}

// CypherConfig configures one Bolt/Cypher-dialect engine instance (native
// Neo4j, or an in-memory Neo4j-family variant).
type CypherConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URI           string `mapstructure:"uri"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	MultiDatabase bool   `mapstructure:"multi_database"`
}

// RelationalConfig configures the SQL adapter.
type RelationalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures the HTTP surface, API auth, and CORS.
type ServerConfig struct {
	Listen     string `mapstructure:"listen"`
	ReadOnly   bool   `mapstructure:"read_only"`
	APIToken   string `mapstructure:"api_token"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

// Load reads the configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".graphd"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("graphd")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GRAPHD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("engines.native.enabled", false)
	viper.SetDefault("engines.native.uri", "bolt://localhost:7687")
	viper.SetDefault("engines.native.multi_database", true)
	viper.SetDefault("engines.memory.enabled", true)
	viper.SetDefault("engines.memory.uri", "bolt://localhost:7688")
	viper.SetDefault("engines.memory.multi_database", false)
	viper.SetDefault("engines.relational.enabled", true)
	viper.SetDefault("engines.relational.path", "./data/graphd.db")
	viper.SetDefault("engines.default", "memory")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_entries", 1024)
	viper.SetDefault("cache.ttl", "5m")

	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.read_only", false)

	viper.SetDefault("log_format", "text")
	viper.SetDefault("log_level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Engines.Native.Username = os.ExpandEnv(cfg.Engines.Native.Username)
	cfg.Engines.Native.Password = os.ExpandEnv(cfg.Engines.Native.Password)
	cfg.Engines.Memory.Username = os.ExpandEnv(cfg.Engines.Memory.Username)
	cfg.Engines.Memory.Password = os.ExpandEnv(cfg.Engines.Memory.Password)
	cfg.Engines.Relational.Path = os.ExpandEnv(cfg.Engines.Relational.Path)
	cfg.Server.APIToken = os.ExpandEnv(cfg.Server.APIToken)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for common errors and returns a joined
// multi-error if any problems are found.
func (c *Config) Validate() error {
	var errs []error

	if c.Engines.Native.Enabled {
		if !strings.HasPrefix(c.Engines.Native.URI, "bolt://") && !strings.HasPrefix(c.Engines.Native.URI, "neo4j://") {
			errs = append(errs, fmt.Errorf("engines.native.uri must start with bolt:// or neo4j://, got %q", c.Engines.Native.URI))
		}
	}
	if c.Engines.Memory.Enabled {
		if !strings.HasPrefix(c.Engines.Memory.URI, "bolt://") && !strings.HasPrefix(c.Engines.Memory.URI, "neo4j://") {
			errs = append(errs, fmt.Errorf("engines.memory.uri must start with bolt:// or neo4j://, got %q", c.Engines.Memory.URI))
		}
	}
	if c.Engines.Relational.Enabled && c.Engines.Relational.Path == "" {
		errs = append(errs, fmt.Errorf("engines.relational.path must not be empty when enabled"))
	}

	if !c.engineNamed(c.Engines.Default) {
		errs = append(errs, fmt.Errorf("engines.default %q does not name an enabled engine", c.Engines.Default))
	}

	if c.Cache.Enabled {
		if c.Cache.MaxEntries <= 0 {
			errs = append(errs, fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries))
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
		}
	}

	if c.Server.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
			errs = append(errs, fmt.Errorf("server.listen %q is not a valid host:port: %w", c.Server.Listen, err))
		}
	}
	if c.Server.APIToken != "" && len(c.Server.APIToken) < 8 {
		errs = append(errs, fmt.Errorf("server.api_token is too short (%d chars), use at least 8 characters", len(c.Server.APIToken)))
	}

	return errors.Join(errs...)
}

// engineNamed reports whether name refers to one of the three adapters and
// that adapter is enabled.
func (c *Config) engineNamed(name string) bool {
	switch name {
	case "native":
		return c.Engines.Native.Enabled
	case "memory":
		return c.Engines.Memory.Enabled
	case "relational":
		return c.Engines.Relational.Enabled
	default:
		return false
	}
}
