// Package config loads the YAML configuration of the wallet tool. Values
// may reference environment variables with ${VAR}; missing optional
// fields get defaults in Validate.
package config

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Node          Node          `yaml:"node"`
	LocalAccounts LocalAccounts `yaml:"local_accounts"`
	Workers       Workers       `yaml:"workers"`
	Contracts     Contracts     `yaml:"contracts"`
	Metrics       Metrics       `yaml:"metrics"`
}

// Node describes the endpoints of the node.
type Node struct {
	URL     string        `yaml:"url"`     // HTTP(S) endpoint, required
	WSURL   string        `yaml:"ws_url"`  // WebSocket endpoint for subscriptions (optional)
	Timeout time.Duration `yaml:"timeout"` // per request timeout, default 10s
}

// LocalAccounts configures client side signing.
type LocalAccounts struct {
	Enabled      bool          `yaml:"enabled"`
	Storage      string        `yaml:"storage"`       // file, leveldb or memory
	Path         string        `yaml:"path"`          // directory for file and leveldb storage
	PersistDelay time.Duration `yaml:"persist_delay"` // debounce for writes, default 500ms
	ChainID      uint64        `yaml:"chain_id"`      // 0 asks the node with eth_chainId
}

// Workers sizes the key derivation pool.
type Workers struct {
	Size  int `yaml:"size"`
	Queue int `yaml:"queue"`
}

// Contracts configures receipt and request polling.
type Contracts struct {
	PollInterval time.Duration `yaml:"poll_interval"` // default 500ms
	PollTimeout  time.Duration `yaml:"poll_timeout"`  // default 10m, 0 keeps the default
}

// Metrics configures call instrumentation.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // address for the Prometheus endpoint, empty disables it
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Node: Node{URL: "http://127.0.0.1:8545"}}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// ChainIDBig returns the configured chain id override, nil when unset.
func (l LocalAccounts) ChainIDBig() *big.Int {
	if l.ChainID == 0 {
		return nil
	}
	return new(big.Int).SetUint64(l.ChainID)
}

// Validate checks required fields and applies defaults. Suspicious but
// legal values are logged as warnings.
func (c *Config) Validate() error {
	if c.Node.URL == "" {
		return fmt.Errorf("node.url is required")
	}
	if err := checkURL("node.url", c.Node.URL, "http", "https", "ws", "wss"); err != nil {
		return err
	}
	if c.Node.WSURL != "" {
		if err := checkURL("node.ws_url", c.Node.WSURL, "ws", "wss"); err != nil {
			return err
		}
	}
	if c.Node.Timeout < 0 {
		return fmt.Errorf("node.timeout must be >= 0")
	}
	if c.Node.Timeout == 0 {
		c.Node.Timeout = 10 * time.Second
	}
	warnTimeout("node", c.Node.Timeout)

	switch c.LocalAccounts.Storage {
	case "":
		c.LocalAccounts.Storage = "memory"
	case "memory":
	case "file", "leveldb":
		if c.LocalAccounts.Enabled && c.LocalAccounts.Path == "" {
			return fmt.Errorf("local_accounts.path is required for %s storage", c.LocalAccounts.Storage)
		}
	default:
		return fmt.Errorf("local_accounts.storage %q is invalid (expected file, leveldb or memory)", c.LocalAccounts.Storage)
	}
	if c.LocalAccounts.PersistDelay < 0 {
		return fmt.Errorf("local_accounts.persist_delay must be >= 0")
	}
	if c.LocalAccounts.PersistDelay == 0 {
		c.LocalAccounts.PersistDelay = 500 * time.Millisecond
	}

	if c.Workers.Size < 0 || c.Workers.Queue < 0 {
		return fmt.Errorf("workers.size and workers.queue must be >= 0")
	}
	if c.Workers.Size == 0 {
		c.Workers.Size = 2
	}
	if c.Workers.Queue == 0 {
		c.Workers.Queue = 16
	}

	if c.Contracts.PollInterval < 0 || c.Contracts.PollTimeout < 0 {
		return fmt.Errorf("contracts.poll_interval and contracts.poll_timeout must be >= 0")
	}
	if c.Contracts.PollInterval == 0 {
		c.Contracts.PollInterval = 500 * time.Millisecond
	}
	if c.Contracts.PollTimeout == 0 {
		c.Contracts.PollTimeout = 10 * time.Minute
	}
	if c.Contracts.PollInterval > c.Contracts.PollTimeout {
		log.Warn("Poll interval exceeds poll timeout, polls will run once",
			"interval", c.Contracts.PollInterval, "timeout", c.Contracts.PollTimeout)
	}
	return nil
}

func checkURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: invalid url (missing scheme or host)", field)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s: invalid url scheme %q", field, u.Scheme)
}

func warnTimeout(scope string, d time.Duration) {
	const low = 500 * time.Millisecond
	const high = 2 * time.Minute
	if d > 0 && d < low {
		log.Warn("Timeout is very low, requests may fail under normal network jitter", "scope", scope, "timeout", d)
	}
	if d > high {
		log.Warn("Timeout is very high, failures may take a long time to surface", "scope", scope, "timeout", d)
	}
}

// Load reads path, expands ${VAR} references from the environment, parses
// the YAML and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
