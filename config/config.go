// Package config handles application configuration: which network to talk
// to, where state lives on disk, and the operational settings of the
// commitment and unroll drivers.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Full node RPC
	Node NodeConfig

	// Commitment tree and unroll driver
	Mint MintConfig

	// Wallet
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// NodeConfig holds full-node RPC client settings.
type NodeConfig struct {
	URL            string `conf:"node.url"`
	TimeoutSeconds int    `conf:"node.timeout"`
}

// MintConfig holds commitment and unroll settings.
type MintConfig struct {
	// LeafWidth is the commitment tree batching width. It must match the
	// width used when the tree was committed or the root will differ.
	LeafWidth int `conf:"mint.leafwidth"`
	// UnrollFee is paid per node spend during unrolling.
	UnrollFee uint64 `conf:"mint.unrollfee"`
	// BatchSize caps node spends per bundle when unrolling a whole tree.
	BatchSize int `conf:"mint.batchsize"`
	// RoyaltyAddress receives creator royalties on resale.
	RoyaltyAddress string `conf:"mint.royaltyaddress"`
	// RoyaltyRate is the royalty percentage times 100 (500 = 5%).
	RoyaltyRate uint64 `conf:"mint.royaltyrate"`
}

// WalletConfig holds wallet settings.
type WalletConfig struct {
	Name     string `conf:"wallet.name"`
	KeyCount uint32 `conf:"wallet.keycount"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.bagmint
//	macOS:   ~/Library/Application Support/Bagmint
//	Windows: %APPDATA%\Bagmint
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bagmint"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Bagmint")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Bagmint")
		}
		return filepath.Join(home, "AppData", "Roaming", "Bagmint")
	default:
		return filepath.Join(home, ".bagmint")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// LedgerDir returns the local ledger database directory.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.NetworkDataDir(), "ledger")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "bagmint.conf")
}
