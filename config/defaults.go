package config

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Node: NodeConfig{
			URL:            "http://127.0.0.1:8555",
			TimeoutSeconds: 10,
		},
		Mint: MintConfig{
			LeafWidth: 100,
			UnrollFee: 500000,
			BatchSize: 10,
		},
		Wallet: WalletConfig{
			Name:     "default",
			KeyCount: 20,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Node.URL = "http://127.0.0.1:8655"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
