package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Full node
	case "node.url":
		cfg.Node.URL = value
	case "node.timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Node.TimeoutSeconds = n

	// Commitment and unroll
	case "mint.leafwidth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mint.LeafWidth = n
	case "mint.unrollfee":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Mint.UnrollFee = n
	case "mint.batchsize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mint.BatchSize = n
	case "mint.royaltyaddress":
		cfg.Mint.RoyaltyAddress = value
	case "mint.royaltyrate":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Mint.RoyaltyRate = n

	// Wallet
	case "wallet.name":
		cfg.Wallet.Name = value
	case "wallet.keycount":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Wallet.KeyCount = uint32(n)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# Bagmint Configuration

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.bagmint)
# datadir = ~/.bagmint

# ============================================================================
# Full Node
# ============================================================================

# Full node JSON-RPC endpoint
node.url = ` + cfg.Node.URL + `
node.timeout = 10

# ============================================================================
# Commitment / Unroll
# ============================================================================

# Commitment tree leaf width. Must match the width used at commitment time.
mint.leafwidth = 100

# Fee paid per node spend when unrolling
mint.unrollfee = 500000

# Node spends per bundle when unrolling a whole tree
mint.batchsize = 10

# Royalty destination address and rate (percentage times 100, 500 = 5%)
# mint.royaltyaddress = <address>
# mint.royaltyrate = 500

# ============================================================================
# Wallet
# ============================================================================

wallet.name = default
wallet.keycount = 20

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
