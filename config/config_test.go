package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	mainnet := DefaultMainnet()
	if err := Validate(mainnet); err != nil {
		t.Errorf("mainnet defaults invalid: %v", err)
	}
	testnet := DefaultTestnet()
	if err := Validate(testnet); err != nil {
		t.Errorf("testnet defaults invalid: %v", err)
	}
	if mainnet.Node.URL == testnet.Node.URL {
		t.Error("mainnet and testnet share a node URL")
	}
	if Default("testnet").Network != Testnet {
		t.Error("Default(testnet) did not select testnet")
	}
}

func TestLoadFileAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bagmint.conf")
	content := `# comment
network = testnet
node.url = "http://10.0.0.5:8555"
mint.leafwidth = 50
mint.unrollfee = 1000
wallet.name = minting
log.level = debug
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatal(err)
	}

	if cfg.Network != Testnet {
		t.Errorf("network = %q", cfg.Network)
	}
	if cfg.Node.URL != "http://10.0.0.5:8555" {
		t.Errorf("node url = %q (quotes should be stripped)", cfg.Node.URL)
	}
	if cfg.Mint.LeafWidth != 50 {
		t.Errorf("leaf width = %d", cfg.Mint.LeafWidth)
	}
	if cfg.Mint.UnrollFee != 1000 {
		t.Errorf("unroll fee = %d", cfg.Mint.UnrollFee)
	}
	if cfg.Wallet.Name != "minting" {
		t.Errorf("wallet name = %q", cfg.Wallet.Name)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty", values)
	}
}

func TestLoadFileBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	if err := os.WriteFile(path, []byte("not a key value line\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("malformed line should fail")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad network", func(c *Config) { c.Network = "devnet" }},
		{"bad node url", func(c *Config) { c.Node.URL = "not-a-url" }},
		{"leaf width too small", func(c *Config) { c.Mint.LeafWidth = 1 }},
		{"zero batch size", func(c *Config) { c.Mint.BatchSize = 0 }},
		{"royalty rate over 100%", func(c *Config) { c.Mint.RoyaltyRate = 10001 }},
		{"bad royalty address", func(c *Config) { c.Mint.RoyaltyAddress = "zzz" }},
		{"zero key count", func(c *Config) { c.Wallet.KeyCount = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := DefaultMainnet()
	ApplyFlags(cfg, &Flags{
		Network:   "testnet",
		NodeURL:   "http://127.0.0.1:9000",
		LeafWidth: 25,
		UnrollFee: 42,
	})
	if cfg.Network != Testnet {
		t.Errorf("network = %q", cfg.Network)
	}
	if cfg.Node.URL != "http://127.0.0.1:9000" {
		t.Errorf("node url = %q", cfg.Node.URL)
	}
	if cfg.Mint.LeafWidth != 25 {
		t.Errorf("leaf width = %d", cfg.Mint.LeafWidth)
	}
	if cfg.Mint.UnrollFee != 42 {
		t.Errorf("unroll fee = %d", cfg.Mint.UnrollFee)
	}
	// Unset flags leave defaults alone.
	if cfg.Mint.BatchSize != 10 {
		t.Errorf("batch size = %d, want default 10", cfg.Mint.BatchSize)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bagmint.conf")
	if err := WriteDefaultConfig(path, Testnet); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatal(err)
	}
	if cfg.Network != Testnet {
		t.Errorf("written config network = %q", cfg.Network)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("written config invalid: %v", err)
	}
}
