package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Engines.Relational.Path != "./data/graphd.db" {
		t.Errorf("engines.relational.path = %q, want ./data/graphd.db", cfg.Engines.Relational.Path)
	}
	if cfg.Engines.Native.Enabled {
		t.Error("engines.native should be disabled by default")
	}
	if !cfg.Engines.Memory.Enabled {
		t.Error("engines.memory should be enabled by default")
	}
	if cfg.Engines.Default != "memory" {
		t.Errorf("engines.default = %q, want memory", cfg.Engines.Default)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("server.listen = %q, want :8080", cfg.Server.Listen)
	}
	if cfg.Server.ReadOnly {
		t.Error("server.read_only should be false by default")
	}
	if cfg.Cache.MaxEntries != 1024 {
		t.Errorf("cache.max_entries = %d, want 1024", cfg.Cache.MaxEntries)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("cache.ttl = %s, want 5m", cfg.Cache.TTL)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate cleanly: %v", err)
	}
}

func TestValidateRejectsUnknownDefaultEngine(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Engines.Default = "native" // native is disabled by default

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for a disabled default engine")
	}
}

func TestValidateRejectsBadCypherURI(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Engines.Memory.URI = "http://localhost:7688"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for a non bolt/neo4j URI")
	}
}

func TestEnvExpansion(t *testing.T) {
	os.Setenv("GRAPHD_TEST_TOKEN", "my-secret-token")
	defer os.Unsetenv("GRAPHD_TEST_TOKEN")

	cfg := &Config{Server: ServerConfig{APIToken: "${GRAPHD_TEST_TOKEN}"}}
	expanded := os.ExpandEnv(cfg.Server.APIToken)
	if expanded != "my-secret-token" {
		t.Errorf("expanded = %q, want my-secret-token", expanded)
	}
}

// loadDefaults creates a Config matching viper's defaults, without reading
// a config file.
func loadDefaults() (*Config, error) {
	return &Config{
		Engines: EnginesConfig{
			Native: CypherConfig{
				Enabled:       false,
				URI:           "bolt://localhost:7687",
				MultiDatabase: true,
			},
			Memory: CypherConfig{
				Enabled:       true,
				URI:           "bolt://localhost:7688",
				MultiDatabase: false,
			},
			Relational: RelationalConfig{
				Enabled: true,
				Path:    "./data/graphd.db",
			},
			Default: "memory",
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 1024,
			TTL:        5 * time.Minute,
		},
		Server: ServerConfig{
			Listen:   ":8080",
			ReadOnly: false,
		},
		LogFormat: "text",
		LogLevel:  "info",
	}, nil
}
