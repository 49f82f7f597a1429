package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"custodia/native/ledger"
)

// Config is the daemon's TOML-backed configuration surface.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Backend       string `toml:"Backend"`
	Environment   string `toml:"Environment"`

	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxBackups int    `toml:"LogMaxBackups"`
	LogMaxAgeDays int    `toml:"LogMaxAgeDays"`

	Owner           string   `toml:"Owner"`
	Admins          []string `toml:"Admins"`
	Exchange        string   `toml:"Exchange"`
	FeeCollector    string   `toml:"FeeCollector"`
	SupportedAssets []string `toml:"SupportedAssets"`
	SwapRunning     bool     `toml:"SwapRunning"`

	AdminAPIKey string `toml:"AdminAPIKey"`
}

const (
	defaultListenAddress = "0.0.0.0:8645"
	defaultDataDir       = "./custody-data"
	defaultBackend       = "leveldb"
)

// Load reads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s contains unknown keys: %v", path, undecoded)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = defaultListenAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = defaultBackend
	}
	if cfg.LogMaxSizeMB <= 0 {
		cfg.LogMaxSizeMB = 100
	}
	if cfg.Admins == nil {
		cfg.Admins = []string{}
	}
	if cfg.SupportedAssets == nil {
		cfg.SupportedAssets = []string{}
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend selection and all configured addresses.
func Validate(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}
	if strings.TrimSpace(cfg.Owner) == "" {
		return fmt.Errorf("config: Owner is required")
	}
	if _, err := ParseAddress(cfg.Owner); err != nil {
		return fmt.Errorf("config: invalid Owner: %w", err)
	}
	for _, admin := range cfg.Admins {
		if _, err := ParseAddress(admin); err != nil {
			return fmt.Errorf("config: invalid admin %q: %w", admin, err)
		}
	}
	if strings.TrimSpace(cfg.Exchange) != "" {
		if _, err := ParseAddress(cfg.Exchange); err != nil {
			return fmt.Errorf("config: invalid Exchange: %w", err)
		}
	}
	if strings.TrimSpace(cfg.FeeCollector) != "" {
		if _, err := ParseAddress(cfg.FeeCollector); err != nil {
			return fmt.Errorf("config: invalid FeeCollector: %w", err)
		}
	}
	for _, asset := range cfg.SupportedAssets {
		if _, err := ledger.ParseAsset(asset); err != nil {
			return fmt.Errorf("config: invalid asset %q: %w", asset, err)
		}
	}
	return nil
}

// ParseAddress decodes a hex-encoded 20-byte address, with or without the 0x
// prefix.
func ParseAddress(s string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return out, err
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("address must be 20 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// Policy constructs the seeded access policy described by the configuration.
func (c *Config) Policy() (*ledger.AccessPolicy, error) {
	owner, err := ParseAddress(c.Owner)
	if err != nil {
		return nil, err
	}
	policy := ledger.NewAccessPolicy(owner)
	admins := make([][20]byte, 0, len(c.Admins))
	for _, raw := range c.Admins {
		addr, err := ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		admins = append(admins, addr)
	}
	var exchange, collector [20]byte
	if strings.TrimSpace(c.Exchange) != "" {
		if exchange, err = ParseAddress(c.Exchange); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(c.FeeCollector) != "" {
		if collector, err = ParseAddress(c.FeeCollector); err != nil {
			return nil, err
		}
	}
	assets := make([]ledger.Asset, 0, len(c.SupportedAssets))
	for _, raw := range c.SupportedAssets {
		asset, err := ledger.ParseAsset(raw)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	policy.Seed(admins, exchange, collector, assets, c.SwapRunning)
	return policy, nil
}
