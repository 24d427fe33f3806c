package config

import (
	"fmt"
	"net/url"

	"github.com/bagmint/bagmint/pkg/types"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.Node.URL != "" {
		u, err := url.Parse(cfg.Node.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("node.url must be an http(s) URL")
		}
	}
	if cfg.Node.TimeoutSeconds < 0 {
		return fmt.Errorf("node.timeout must not be negative")
	}
	if cfg.Mint.LeafWidth < 2 {
		return fmt.Errorf("mint.leafwidth must be at least 2")
	}
	if cfg.Mint.BatchSize < 1 {
		return fmt.Errorf("mint.batchsize must be at least 1")
	}
	// Rates above 100% would burn more than the trade is worth.
	if cfg.Mint.RoyaltyRate > 10000 {
		return fmt.Errorf("mint.royaltyrate must be at most 10000")
	}
	if cfg.Mint.RoyaltyAddress != "" {
		if _, err := types.ParsePuzzleHash(cfg.Mint.RoyaltyAddress); err != nil {
			return fmt.Errorf("mint.royaltyaddress: %w", err)
		}
	}
	if cfg.Wallet.KeyCount == 0 {
		return fmt.Errorf("wallet.keycount must be positive")
	}
	return nil
}
