package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"clubchain/crypto"
)

// Config carries the daemon configuration. The points schedule and the admin
// allow-list are deployment policy; everything else is plumbing.
type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	GatewayAddress string   `toml:"GatewayAddress"`
	DataDir        string   `toml:"DataDir"`
	NetworkName    string   `toml:"NetworkName"`
	PaymentToken   string   `toml:"PaymentToken"`
	OnTimePoints   uint64   `toml:"OnTimePoints"`
	LatePoints     uint64   `toml:"LatePoints"`
	AdminAllowList []string `toml:"AdminAllowList"`
	LogFile        string   `toml:"LogFile"`
	OTLPEndpoint   string   `toml:"OTLPEndpoint"`
	OTLPInsecure   bool     `toml:"OTLPInsecure"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		RPCAddress:     "127.0.0.1:8645",
		GatewayAddress: "127.0.0.1:8646",
		DataDir:        "./clubchain-data",
		NetworkName:    "clubchain-local",
		PaymentToken:   "CPT",
		OnTimePoints:   10,
		LatePoints:     5,
	}
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: write defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.RPCAddress == "" {
		return fmt.Errorf("config: RPCAddress required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if c.PaymentToken == "" {
		return fmt.Errorf("config: PaymentToken required")
	}
	if c.OnTimePoints == 0 || c.LatePoints == 0 {
		return fmt.Errorf("config: points schedule values must be positive")
	}
	if _, err := c.AdminIdentities(); err != nil {
		return err
	}
	return nil
}

// AdminIdentities decodes the configured allow-list into raw identities.
func (c *Config) AdminIdentities() ([][20]byte, error) {
	identities := make([][20]byte, 0, len(c.AdminAllowList))
	for _, encoded := range c.AdminAllowList {
		addr, err := crypto.DecodeAddress(encoded)
		if err != nil {
			return nil, fmt.Errorf("config: invalid admin address %q: %w", encoded, err)
		}
		var id [20]byte
		copy(id[:], addr.Bytes())
		identities = append(identities, id)
	}
	return identities, nil
}
