package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LogConfig controls the zap logger.
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json or console
}

// RPCConfig controls the HTTP hashing service.
type RPCConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	CacheSize  int    `yaml:"cache_size"`
}

// StoreConfig controls the verification journal. An empty path keeps the
// journal in memory.
type StoreConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// MinerConfig controls the nonce-scanning worker pool.
type MinerConfig struct {
	Threads int    `yaml:"threads"`
	Variant string `yaml:"variant"`
}

// Config holds the whole service configuration.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	RPC   RPCConfig   `yaml:"rpc"`
	Store StoreConfig `yaml:"store"`
	Miner MinerConfig `yaml:"miner"`
}

// DefaultConfig is used for every field a configuration file leaves out.
var DefaultConfig = Config{
	Log: LogConfig{
		Level:    "info",
		Encoding: "console",
	},
	RPC: RPCConfig{
		ListenAddr: ":9100",
		CacheSize:  4096,
	},
	Store: StoreConfig{
		Path:    "",
		Enabled: true,
	},
	Miner: MinerConfig{
		Threads: 0, // runtime.NumCPU()
		Variant: "v2b2",
	},
}

// Load reads a YAML file over DefaultConfig. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding)
	}
	if c.RPC.CacheSize < 0 {
		return fmt.Errorf("rpc.cache_size must not be negative, got %d", c.RPC.CacheSize)
	}
	if c.Miner.Threads < 0 {
		return fmt.Errorf("miner.threads must not be negative, got %d", c.Miner.Threads)
	}
	return nil
}
