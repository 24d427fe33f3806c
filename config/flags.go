package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Full node
	NodeURL string

	// Commitment / unroll
	Metadata       string
	GenesisCoinID  string
	Target         string
	LeafWidth      int
	UnrollFee      uint64
	BatchSize      int
	RoyaltyAddress string
	RoyaltyRate    uint64
	Requested      uint64

	// Wallet
	WalletName string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args (the subcommand and its positional arguments)
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetLogJSON bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("bagmint", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	fs.Bool("testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Full node
	fs.StringVar(&f.NodeURL, "node-url", "", "Full node JSON-RPC endpoint")

	// Commitment / unroll
	fs.StringVar(&f.Metadata, "metadata", "", "Path to CSV file containing item metadata")
	fs.StringVar(&f.Metadata, "m", "", "Metadata CSV path (shorthand)")
	fs.StringVar(&f.GenesisCoinID, "genesis-coin-id", "", "ID of the coin spent to create the commitment root")
	fs.StringVar(&f.Target, "target", "", "Puzzle hash or address to unwind to or mint for")
	fs.IntVar(&f.LeafWidth, "leaf-width", 0, "Commitment tree leaf width")
	fs.Uint64Var(&f.UnrollFee, "unroll-fee", 0, "Fee paid per node spend when unrolling")
	fs.IntVar(&f.BatchSize, "batch-size", 0, "Node spends per bundle when unrolling a whole tree")
	fs.StringVar(&f.RoyaltyAddress, "royalty-address", "", "Royalty destination address")
	fs.Uint64Var(&f.RoyaltyRate, "royalty-rate", 0, "Royalty percentage times 100 (500 = 5%)")
	fs.Uint64Var(&f.Requested, "requested", 0, "Requested payment per item; items become offers instead of direct mints")

	// Wallet
	fs.StringVar(&f.WalletName, "wallet-name", "", "Wallet name in the keystore")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = PrintUsage

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Handle --testnet shorthand
	if isFlagSet(fs, "testnet") {
		f.Network = "testnet"
	}
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()

	return f
}

// isFlagSet reports whether a flag was explicitly provided.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Full node
	if f.NodeURL != "" {
		cfg.Node.URL = f.NodeURL
	}

	// Commitment / unroll
	if f.LeafWidth != 0 {
		cfg.Mint.LeafWidth = f.LeafWidth
	}
	if f.UnrollFee != 0 {
		cfg.Mint.UnrollFee = f.UnrollFee
	}
	if f.BatchSize != 0 {
		cfg.Mint.BatchSize = f.BatchSize
	}
	if f.RoyaltyAddress != "" {
		cfg.Mint.RoyaltyAddress = f.RoyaltyAddress
	}
	if f.RoyaltyRate != 0 {
		cfg.Mint.RoyaltyRate = f.RoyaltyRate
	}

	// Wallet
	if f.WalletName != "" {
		cfg.Wallet.Name = f.WalletName
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// PrintUsage prints the command-line help.
func PrintUsage() {
	usage := `bagmint - commit, unroll, and mint coin sets

Usage:
  bagmint [options] <command> [args]

Commands:
  secure                Build the commitment tree from a metadata CSV and
                        print its root coin address
  unroll [item-index]   Replay committed node spends onto the ledger; with
                        no index the whole tree is unrolled
  mint <item-index>     Unroll one item and mint it
  melt <item-index>     Void a committed item so it can never mint
  offer <item-index>    Print the exchange offer for an item
  wallet <subcommand>   Manage wallets (create, import, list, address,
                        balance, delete)
  init                  Write a default config file

Options:
  --network <name>          Network: mainnet or testnet
  --testnet                 Shorthand for --network=testnet
  --datadir <path>          Data directory
  -c, --config <path>       Config file path
  --node-url <url>          Full node JSON-RPC endpoint
  -m, --metadata <path>     Metadata CSV path
  --genesis-coin-id <hex>   Coin spent to create the commitment root
  --target <hash|address>   Target to unroll to or mint for
  --leaf-width <n>          Commitment tree leaf width
  --unroll-fee <n>          Fee per node spend
  --batch-size <n>          Node spends per bundle for full unrolls
  --royalty-address <addr>  Royalty destination
  --royalty-rate <n>        Royalty percentage times 100
  --requested <n>           Requested payment per item (offers)
  --wallet-name <name>      Wallet name in the keystore
  --log-level <level>       debug, info, warn, error
  --log-file <path>         Log file path
  --log-json                Output logs as JSON
  -h, --help                Show this help
  -v, --version             Show version
`
	fmt.Fprint(os.Stderr, strings.TrimLeft(usage, "\n"))
}
