// bagmint commits NFT metadata into a coin tree, unrolls the tree back
// onto the ledger, and mints or melts the committed items.
//
// Usage:
//
//	bagmint [options] <command> [args]
//	bagmint --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bagmint/bagmint/config"
	"github.com/bagmint/bagmint/internal/log"
	"github.com/bagmint/bagmint/internal/metadata"
	"github.com/bagmint/bagmint/internal/rpcclient"
	"github.com/bagmint/bagmint/internal/unroll"
	"github.com/bagmint/bagmint/internal/wallet"
	"github.com/bagmint/bagmint/pkg/bag"
	"github.com/bagmint/bagmint/pkg/types"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	flags := config.ParseFlags()

	if flags.Version {
		fmt.Printf("bagmint %s\n", version)
		return
	}
	if flags.Help || len(flags.Args) == 0 {
		config.PrintUsage()
		if len(flags.Args) == 0 && !flags.Help {
			os.Exit(1)
		}
		return
	}

	cfg := loadConfig(flags)

	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]

	switch cmd {
	case "secure":
		cmdSecure(cfg, flags)
	case "unroll":
		cmdUnroll(cfg, flags, cmdArgs)
	case "mint":
		cmdMint(cfg, flags, cmdArgs)
	case "melt":
		cmdMelt(cfg, flags, cmdArgs)
	case "offer":
		cmdOffer(cfg, flags, cmdArgs)
	case "wallet":
		cmdWallet(cfg, cmdArgs)
	case "init":
		cmdInit(cfg)
	case "help":
		config.PrintUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		config.PrintUsage()
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, and command-line flags.
func loadConfig(flags *config.Flags) *config.Config {
	network := config.Mainnet
	if flags.Network != "" {
		network = config.NetworkType(flags.Network)
	}
	cfg := config.Default(network)

	path := flags.Config
	if path == "" {
		path = cfg.ConfigFile()
	}
	values, err := config.LoadFile(path)
	if err != nil {
		fatal("load config %s: %v", path, err)
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		fatal("apply config: %v", err)
	}
	config.ApplyFlags(cfg, flags)

	if err := config.Validate(cfg); err != nil {
		fatal("invalid config: %v", err)
	}
	return cfg
}

// ── secure ──────────────────────────────────────────────────────────────

func cmdSecure(cfg *config.Config, flags *config.Flags) {
	w := openWallet(cfg)
	plan := buildPlan(cfg, flags, w)
	tree := secureTree(cfg, plan)

	rootAddr, err := types.EncodeAddress(tree.Root())
	if err != nil {
		fatal("encode root address: %v", err)
	}

	fmt.Printf("Items:      %d\n", len(plan.Targets))
	fmt.Printf("Coins:      %d\n", tree.Size())
	fmt.Printf("Leaf width: %d\n", tree.LeafWidth())
	fmt.Printf("Root:       %s\n", tree.Root())
	fmt.Printf("Address:    %s\n", rootAddr)
	fmt.Println()
	fmt.Println("Send a zero-amount coin to the address above, then pass its parent")
	fmt.Println("spend's coin ID as --genesis-coin-id to unroll.")
}

// ── unroll ──────────────────────────────────────────────────────────────

func cmdUnroll(cfg *config.Config, flags *config.Flags, args []string) {
	w := openWallet(cfg)
	plan := buildPlan(cfg, flags, w)
	driver := newDriver(cfg, flags, w, plan)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(args) == 0 {
		if err := driver.UnrollAll(ctx); err != nil {
			fatal("unroll: %v", err)
		}
		fmt.Println("Tree unrolled.")
		return
	}

	target := itemTarget(plan, args[0])
	if err := driver.UnrollTo(ctx, target.PuzzleHash); err != nil {
		fatal("unroll item %s: %v", args[0], err)
	}
	fmt.Printf("Item %s unrolled: pre-launcher %s\n", args[0], target.PuzzleHash)
}

// ── mint ────────────────────────────────────────────────────────────────

func cmdMint(cfg *config.Config, flags *config.Flags, args []string) {
	if len(args) < 1 {
		fatal("Usage: bagmint [options] mint <item-index>")
	}

	w := openWallet(cfg)
	plan := buildPlan(cfg, flags, w)
	driver := newDriver(cfg, flags, w, plan)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	target := itemTarget(plan, args[0])
	if err := driver.UnrollTo(ctx, target.PuzzleHash); err != nil {
		fatal("unroll item %s: %v", args[0], err)
	}
	if _, err := driver.Mint(ctx, target.PuzzleHash, w.SigningKey()); err != nil {
		fatal("mint item %s: %v", args[0], err)
	}
	fmt.Printf("Item %s minted.\n", args[0])
}

// ── melt ────────────────────────────────────────────────────────────────

func cmdMelt(cfg *config.Config, flags *config.Flags, args []string) {
	if len(args) < 1 {
		fatal("Usage: bagmint [options] melt <item-index>")
	}

	w := openWallet(cfg)
	plan := buildPlan(cfg, flags, w)
	driver := newDriver(cfg, flags, w, plan)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	target := itemTarget(plan, args[0])
	if err := driver.UnrollTo(ctx, target.PuzzleHash); err != nil {
		fatal("unroll item %s: %v", args[0], err)
	}
	if err := driver.Melt(ctx, target.PuzzleHash, w.SigningKey()); err != nil {
		fatal("melt item %s: %v", args[0], err)
	}
	fmt.Printf("Item %s melted; it can no longer mint.\n", args[0])
}

// ── offer ───────────────────────────────────────────────────────────────

func cmdOffer(cfg *config.Config, flags *config.Flags, args []string) {
	if len(args) < 1 {
		fatal("Usage: bagmint [options] --requested <n> offer <item-index>")
	}

	w := openWallet(cfg)
	plan := buildPlan(cfg, flags, w)
	driver := newDriver(cfg, flags, w, plan)

	target := itemTarget(plan, args[0])
	offer, err := driver.Offer(target.PuzzleHash, w.SigningKey())
	if err != nil {
		fatal("offer item %s: %v", args[0], err)
	}
	encoded, err := offer.Encode()
	if err != nil {
		fatal("encode offer: %v", err)
	}
	fmt.Println(encoded)
}

// ── wallet ──────────────────────────────────────────────────────────────

func cmdWallet(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: bagmint wallet <create|import|list|address|balance|delete>")
	}

	switch args[0] {
	case "create":
		cmdWalletCreate(cfg)
	case "import":
		cmdWalletImport(cfg, args[1:])
	case "list":
		cmdWalletList(cfg)
	case "address":
		cmdWalletAddress(cfg)
	case "balance":
		cmdWalletBalance(cfg)
	case "delete":
		cmdWalletDelete(cfg)
	default:
		fatal("Unknown wallet command: %s\nUsage: bagmint wallet <create|import|list|address|balance|delete>", args[0])
	}
}

func cmdWalletCreate(cfg *config.Config) {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	createWalletFromMnemonic(cfg, mnemonic)
	fmt.Printf("\nWallet created: %s\n", cfg.Wallet.Name)
}

func cmdWalletImport(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: bagmint wallet import \"word1 word2 ...\"")
	}
	mnemonic := args[0]
	if !wallet.ValidateMnemonic(mnemonic) {
		fatal("invalid mnemonic")
	}

	createWalletFromMnemonic(cfg, mnemonic)
	fmt.Printf("Wallet imported: %s\n", cfg.Wallet.Name)
}

func createWalletFromMnemonic(cfg *config.Config, mnemonic string) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	defer zero(seed)

	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr, err := hdKey.Address()
	if err != nil {
		fatal("encode address: %v", err)
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	if err := ks.Create(cfg.Wallet.Name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}
	if err := ks.AddAccount(cfg.Wallet.Name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr,
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("Address: %s\n", addr)
}

func cmdWalletList(cfg *config.Config) {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdWalletAddress(cfg *config.Config) {
	w := openWallet(cfg)
	for i, ph := range w.PuzzleHashes() {
		addr, err := types.EncodeAddress(ph)
		if err != nil {
			fatal("encode address: %v", err)
		}
		fmt.Printf("  [%d] %s\n", i, addr)
	}
}

func cmdWalletBalance(cfg *config.Config) {
	w := openWallet(cfg)
	balance, err := w.Balance(newNodeClient(cfg))
	if err != nil {
		fatal("fetch balance: %v", err)
	}
	fmt.Printf("Balance: %d\n", balance)
}

func cmdWalletDelete(cfg *config.Config) {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	if err := ks.Delete(cfg.Wallet.Name); err != nil {
		fatal("delete wallet: %v", err)
	}
	fmt.Printf("Wallet deleted: %s\n", cfg.Wallet.Name)
}

// ── init ────────────────────────────────────────────────────────────────

func cmdInit(cfg *config.Config) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		fatal("create data directory: %v", err)
	}
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		fatal("config file already exists: %s", path)
	}
	if err := config.WriteDefaultConfig(path, cfg.Network); err != nil {
		fatal("write config: %v", err)
	}
	fmt.Printf("Config written: %s\n", path)
}

// ── shared plumbing ─────────────────────────────────────────────────────

// openWallet prompts for the keystore password and derives the configured
// key window.
func openWallet(cfg *config.Config) *wallet.Wallet {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	seed, err := ks.Load(cfg.Wallet.Name, password)
	if err != nil {
		fatal("load wallet %q: %v", cfg.Wallet.Name, err)
	}
	defer zero(seed)

	w, err := wallet.New(seed, 0, cfg.Wallet.KeyCount)
	if err != nil {
		fatal("derive keys: %v", err)
	}
	return w
}

// buildPlan reconstructs the committed mint plan from the metadata file.
// The same file, settings, and creator key always yield the same tree, so
// securing and unrolling never need shared state.
func buildPlan(cfg *config.Config, flags *config.Flags, w *wallet.Wallet) *metadata.Plan {
	if flags.Metadata == "" {
		fatal("a metadata CSV is required (-m <path>)")
	}
	f, err := os.Open(flags.Metadata)
	if err != nil {
		fatal("open metadata: %v", err)
	}
	defer f.Close()

	items, _, err := metadata.ReadCSV(f, true, false)
	if err != nil {
		fatal("read metadata: %v", err)
	}
	if len(items) == 0 {
		fatal("metadata file has no items")
	}

	target := w.ChangePuzzleHash()
	if flags.Target != "" {
		target, err = types.ParsePuzzleHash(flags.Target)
		if err != nil {
			fatal("parse target: %v", err)
		}
	}

	var royaltyPH types.Hash
	if cfg.Mint.RoyaltyAddress != "" {
		royaltyPH, err = types.ParsePuzzleHash(cfg.Mint.RoyaltyAddress)
		if err != nil {
			fatal("parse royalty address: %v", err)
		}
	}

	creator := w.SigningKey().PublicKey()
	return metadata.BuildPlan(items, target, royaltyPH, cfg.Mint.RoyaltyRate, creator, flags.Requested)
}

func secureTree(cfg *config.Config, plan *metadata.Plan) *bag.Tree {
	tree, err := plan.SecureTree(cfg.Mint.LeafWidth)
	if err != nil {
		fatal("build commitment tree: %v", err)
	}
	return tree
}

func newNodeClient(cfg *config.Config) *rpcclient.Client {
	timeout := time.Duration(cfg.Node.TimeoutSeconds) * time.Second
	return rpcclient.NewWithTimeout(cfg.Node.URL, timeout)
}

func newDriver(cfg *config.Config, flags *config.Flags, w *wallet.Wallet, plan *metadata.Plan) *unroll.Driver {
	if flags.GenesisCoinID == "" {
		fatal("--genesis-coin-id is required")
	}
	genesisID, err := types.HexToCoinID(flags.GenesisCoinID)
	if err != nil {
		fatal("parse genesis coin ID: %v", err)
	}

	tree := secureTree(cfg, plan)
	client := newNodeClient(cfg)
	return unroll.New(client, tree, plan.Targets, plan.Spends, genesisID, unroll.Options{
		Fee:       cfg.Mint.UnrollFee,
		BatchSize: cfg.Mint.BatchSize,
		Wallet:    w,
		Funds:     client,
	})
}

// itemTarget resolves a positional item index to its commitment target.
func itemTarget(plan *metadata.Plan, arg string) bag.Target {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 || idx >= len(plan.Targets) {
		fatal("item index must be between 0 and %d, got %q", len(plan.Targets)-1, arg)
	}
	return plan.Targets[idx]
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
