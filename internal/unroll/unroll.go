// Package unroll drives a committed tree back out onto the ledger: it
// walks the chain of node spends from the genesis coin down to a target,
// pushes the spends the network has not seen yet, funds them from a
// wallet, and finally executes the mint for each leaf.
package unroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bagmint/bagmint/internal/log"
	"github.com/bagmint/bagmint/internal/rpcclient"
	"github.com/bagmint/bagmint/internal/wallet"
	"github.com/bagmint/bagmint/pkg/bag"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/mint"
	"github.com/bagmint/bagmint/pkg/types"
)

var (
	ErrUnknownTarget  = errors.New("unroll: target not in tree")
	ErrAlreadyMinted  = errors.New("unroll: pre-launcher coin already spent")
	ErrWalletRequired = errors.New("unroll: spends need funding but no wallet is attached")
)

// Options tune the driver. Zero values fall back to defaults.
type Options struct {
	// Fee is paid per node spend, funded by the wallet.
	Fee uint64
	// PollInterval is how often coin records are polled while waiting.
	PollInterval time.Duration
	// BatchSize caps spends per bundle when unrolling a whole tree.
	// Larger batches can exceed block cost limits.
	BatchSize int

	// Wallet and Funds supply fee and deficit funding. Both may be nil
	// when Fee is zero and every node spend is self-funded.
	Wallet *wallet.Wallet
	Funds  wallet.CoinSource
}

const (
	defaultPollInterval = 3 * time.Second
	defaultBatchSize    = 10
)

// Driver replays a committed tree against a node.
type Driver struct {
	node      rpcclient.NodeClient
	tree      *bag.Tree
	targets   []bag.Target
	spends    map[types.Hash]*mint.Spends
	genesisID types.CoinID
	opts      Options
}

// New builds a driver over a tree rooted at the genesis coin. The spends
// map carries the mint chain for each leaf, keyed by pre-launcher puzzle
// hash.
func New(node rpcclient.NodeClient, tree *bag.Tree, targets []bag.Target, spends map[types.Hash]*mint.Spends, genesisID types.CoinID, opts Options) *Driver {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Driver{
		node:      node,
		tree:      tree,
		targets:   targets,
		spends:    spends,
		genesisID: genesisID,
		opts:      opts,
	}
}

// RequiredSpends walks the parent chain of a target upward until it finds a
// coin the node already knows, then returns the missing node spends root
// first. An empty result means the chain down to the target is already
// spent.
func (d *Driver) RequiredSpends(targetPuzzleHash types.Hash) ([]*coin.Spend, error) {
	if !d.tree.Contains(targetPuzzleHash) && d.tree.Root() != targetPuzzleHash {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, targetPuzzleHash)
	}

	var reversed []*coin.Spend
	current := targetPuzzleHash
	for {
		spend, _ := d.tree.ParentOf(d.genesisID, current)
		if spend == nil {
			break
		}
		record, err := d.node.GetCoinRecord(spend.Coin.ID())
		if err != nil {
			return nil, err
		}
		if record == nil {
			// Coin doesn't exist yet; its parent must be spent first.
			reversed = append(reversed, spend)
			current = spend.Coin.PuzzleHash
			continue
		}
		if !record.Spent() {
			// Reached the lowest unspent coin.
			reversed = append(reversed, spend)
		} else {
			// Only expected when somebody already unrolled this chain.
			log.Unroll.Warn().
				Stringer("coin", types.Hash(spend.Coin.ID())).
				Msg("lowest coin already spent, tree already unrolled here")
		}
		break
	}

	out := make([]*coin.Spend, len(reversed))
	for i, s := range reversed {
		out[len(reversed)-1-i] = s
	}
	return out, nil
}

// UnrollTo pushes the missing node spends for one target sequentially,
// waiting for each to confirm before spending its child.
func (d *Driver) UnrollTo(ctx context.Context, targetPuzzleHash types.Hash) error {
	spends, err := d.RequiredSpends(targetPuzzleHash)
	if err != nil {
		return err
	}
	log.Unroll.Info().
		Int("spends", len(spends)).
		Stringer("target", targetPuzzleHash).
		Msg("unrolling to target")

	for _, spend := range spends {
		if err := d.pushSpends(ctx, []*coin.Spend{spend}); err != nil {
			return err
		}
		if err := d.waitForSpend(ctx, spend.Coin.ID()); err != nil {
			return err
		}
	}
	return nil
}

// UnrollAll replays the entire tree. Spends at the same depth have
// independent parents, so they are batched together; each depth waits for
// the previous one to confirm.
func (d *Driver) UnrollAll(ctx context.Context) error {
	levels := make(map[int]map[types.Hash]*coin.Spend)
	maxDepth := 0
	total := 0

	// Unroll to the first target of each leaf batch; that covers every
	// node spend in the tree exactly once.
	for _, batch := range bag.Batch(d.targets, d.tree.LeafWidth()) {
		spends, err := d.RequiredSpends(batch[0].PuzzleHash)
		if err != nil {
			return err
		}
		for depth, spend := range spends {
			if levels[depth] == nil {
				levels[depth] = make(map[types.Hash]*coin.Spend)
			}
			if _, ok := levels[depth][spend.Coin.PuzzleHash]; !ok {
				levels[depth][spend.Coin.PuzzleHash] = spend
				total++
			}
			if depth > maxDepth {
				maxDepth = depth
			}
		}
	}
	log.Unroll.Info().
		Int("spends", total).
		Uint64("fees", uint64(total)*d.opts.Fee).
		Msg("unrolling entire tree")

	for depth := 0; depth <= maxDepth; depth++ {
		var pending []*coin.Spend
		var waiting []types.CoinID
		flush := func() error {
			if len(pending) == 0 {
				return nil
			}
			if err := d.pushSpends(ctx, pending); err != nil {
				return err
			}
			log.Unroll.Info().
				Int("spends", len(pending)).
				Int("depth", depth).
				Msg("batch pushed")
			pending = nil
			return nil
		}
		for _, spend := range levels[depth] {
			pending = append(pending, spend)
			waiting = append(waiting, spend.Coin.ID())
			if len(pending) >= d.opts.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := flush(); err != nil {
			return err
		}
		// Children spend coins created here, so the whole depth must
		// confirm before the next one starts.
		for _, id := range waiting {
			if err := d.waitForSpend(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Mint pushes the three-spend mint chain for an unrolled leaf. The key
// signs the commitment authorization.
func (d *Driver) Mint(ctx context.Context, targetPuzzleHash types.Hash, key *crypto.PrivateKey) (*coin.SpendBundle, error) {
	m, parentID, err := d.leafSpends(targetPuzzleHash)
	if err != nil {
		return nil, err
	}

	preLauncherCoin := coin.NewCoin(parentID, targetPuzzleHash, 1)
	record, err := d.node.GetCoinRecord(preLauncherCoin.ID())
	if err != nil {
		return nil, err
	}
	if record != nil && record.Spent() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyMinted, preLauncherCoin.ID())
	}

	bundle, err := m.ToSpendBundle(parentID, key)
	if err != nil {
		return nil, err
	}
	if err := d.node.PushBundle(bundle); err != nil {
		return nil, fmt.Errorf("unroll: push mint: %w", err)
	}
	log.Unroll.Info().
		Stringer("pre_launcher", types.Hash(preLauncherCoin.ID())).
		Msg("mint pushed")
	if err := d.waitForSpend(ctx, preLauncherCoin.ID()); err != nil {
		return nil, err
	}
	return bundle, nil
}

// Melt pushes the spend that voids a committed leaf without minting it.
func (d *Driver) Melt(ctx context.Context, targetPuzzleHash types.Hash, key *crypto.PrivateKey) error {
	m, parentID, err := d.leafSpends(targetPuzzleHash)
	if err != nil {
		return err
	}
	bundle, err := m.MeltBundle(parentID, key)
	if err != nil {
		return err
	}
	if err := d.node.PushBundle(bundle); err != nil {
		return fmt.Errorf("unroll: push melt: %w", err)
	}
	return d.waitForSpend(ctx, bundle.Spends[0].Coin.ID())
}

// Offer builds the exchange offer for an unrolled leaf without pushing
// anything; the taker completes and submits it.
func (d *Driver) Offer(targetPuzzleHash types.Hash, key *crypto.PrivateKey) (*mint.Offer, error) {
	m, parentID, err := d.leafSpends(targetPuzzleHash)
	if err != nil {
		return nil, err
	}
	return m.ToOffer(parentID, key)
}

func (d *Driver) leafSpends(targetPuzzleHash types.Hash) (*mint.Spends, types.CoinID, error) {
	m, ok := d.spends[targetPuzzleHash]
	if !ok {
		return nil, types.CoinID{}, fmt.Errorf("%w: no mint spends for %s", ErrUnknownTarget, targetPuzzleHash)
	}
	_, parentID := d.tree.ParentOf(d.genesisID, targetPuzzleHash)
	return m, parentID, nil
}

// pushSpends submits node spends as one bundle, attaching wallet funding
// for fees and for any value the spends create beyond what they consume.
// Funding spends assert each node's announcement so the fee cannot land
// without the spends it pays for.
func (d *Driver) pushSpends(ctx context.Context, spends []*coin.Spend) error {
	bundle := coin.NewSpendBundle(spends...)

	var created, consumed uint64
	for _, s := range spends {
		additions, err := s.Additions()
		if err != nil {
			return err
		}
		for _, c := range additions {
			created += c.Amount
		}
		consumed += s.Coin.Amount
	}
	need := uint64(len(spends)) * d.opts.Fee
	if created > consumed {
		need += created - consumed
	}

	if need > 0 {
		if d.opts.Wallet == nil || d.opts.Funds == nil {
			return fmt.Errorf("%w: need %d", ErrWalletRequired, need)
		}
		asserts := make([]types.Hash, len(spends))
		for i, s := range spends {
			asserts[i] = coin.CoinAnnouncementID(s.Coin.ID(), bag.NodeAnnouncementMessage)
		}
		funding, err := d.opts.Wallet.FundingBundle(d.opts.Funds, need, asserts...)
		if err != nil {
			return fmt.Errorf("unroll: fund %d: %w", need, err)
		}
		bundle.Merge(funding)
	}

	if err := d.node.PushBundle(bundle); err != nil {
		return fmt.Errorf("unroll: push: %w", err)
	}
	return nil
}

// waitForSpend polls the node until the coin is spent.
func (d *Driver) waitForSpend(ctx context.Context, id types.CoinID) error {
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()
	for {
		record, err := d.node.GetCoinRecord(id)
		if err != nil {
			return err
		}
		if record != nil && record.Spent() {
			return nil
		}
		log.Unroll.Debug().
			Stringer("coin", types.Hash(id)).
			Msg("waiting for coin spend")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
