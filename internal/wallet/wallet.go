package wallet

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

// CoinSource lists unspent coins locked by a puzzle hash. The local ledger
// implements it directly; remote nodes through the RPC client.
type CoinSource interface {
	UnspentByPuzzleHash(puzzleHash types.Hash) ([]coin.Coin, error)
}

// Wallet holds a window of derived keys and builds the spends that fund
// and sign on their behalf.
type Wallet struct {
	keys  map[types.Hash]*crypto.PrivateKey
	order []types.Hash
}

// New derives the first count external keys of an account from a seed.
func New(seed []byte, account, count uint32) (*Wallet, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	w := &Wallet{keys: make(map[types.Hash]*crypto.PrivateKey, count)}
	for i := uint32(0); i < count; i++ {
		hd, err := master.DeriveAddress(account, ChangeExternal, i)
		if err != nil {
			return nil, err
		}
		signer, err := hd.Signer()
		if err != nil {
			return nil, err
		}
		w.addKey(signer)
	}
	if len(w.order) == 0 {
		return nil, fmt.Errorf("wallet needs at least one key")
	}
	return w, nil
}

// FromKey builds a single-key wallet, used by tests and one-off drivers.
func FromKey(key *crypto.PrivateKey) *Wallet {
	w := &Wallet{keys: make(map[types.Hash]*crypto.PrivateKey, 1)}
	w.addKey(key)
	return w
}

func (w *Wallet) addKey(key *crypto.PrivateKey) {
	ph := puzzle.NewP2PubKey(key.PublicKey()).PuzzleHash()
	if _, ok := w.keys[ph]; ok {
		return
	}
	w.keys[ph] = key
	w.order = append(w.order, ph)
}

// PuzzleHashes returns the wallet's puzzle hashes in derivation order.
func (w *Wallet) PuzzleHashes() []types.Hash {
	out := make([]types.Hash, len(w.order))
	copy(out, w.order)
	return out
}

// ChangePuzzleHash is where change from funding spends lands.
func (w *Wallet) ChangePuzzleHash() types.Hash {
	return w.order[0]
}

// SigningKey is the wallet's first key, used to authorize commitments.
func (w *Wallet) SigningKey() *crypto.PrivateKey {
	return w.keys[w.order[0]]
}

// Unspent gathers the wallet's unspent coins from a coin source.
func (w *Wallet) Unspent(src CoinSource) ([]coin.Coin, error) {
	var out []coin.Coin
	for _, ph := range w.order {
		coins, err := src.UnspentByPuzzleHash(ph)
		if err != nil {
			return nil, fmt.Errorf("list unspent %s: %w", ph, err)
		}
		out = append(out, coins...)
	}
	return out, nil
}

// Balance sums the wallet's unspent coin amounts.
func (w *Wallet) Balance(src CoinSource) (uint64, error) {
	coins, err := w.Unspent(src)
	if err != nil {
		return 0, err
	}
	return totalAmount(coins), nil
}

// FundingBundle selects coins worth at least amount and spends them, paying
// change back to the wallet. Every funding spend asserts the given coin
// announcements so it cannot be spliced out and confirmed on its own.
func (w *Wallet) FundingBundle(src CoinSource, amount uint64, asserts ...types.Hash) (*coin.SpendBundle, error) {
	coins, err := w.Unspent(src)
	if err != nil {
		return nil, err
	}
	sel, err := SelectCoins(coins, amount)
	if err != nil {
		return nil, err
	}

	bundle := coin.NewSpendBundle()
	for i, c := range sel.Coins {
		var conds []coin.Condition
		if i == 0 && sel.Change > 0 {
			change := w.ChangePuzzleHash()
			conds = append(conds, coin.CreateCoin{
				PuzzleHash: change,
				Amount:     sel.Change,
				Memos:      [][]byte{change.Bytes()},
			})
		}
		for _, assert := range asserts {
			conds = append(conds, coin.AssertCoinAnnouncement{AnnouncementID: assert})
		}
		if err := w.appendSpend(bundle, c, conds); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

// Send pays the given payments from the wallet's coins, change included.
func (w *Wallet) Send(src CoinSource, payments []coin.Payment) (*coin.SpendBundle, error) {
	var target uint64
	for _, p := range payments {
		target += p.Amount
	}
	coins, err := w.Unspent(src)
	if err != nil {
		return nil, err
	}
	sel, err := SelectCoins(coins, target)
	if err != nil {
		return nil, err
	}

	bundle := coin.NewSpendBundle()
	for i, c := range sel.Coins {
		var conds []coin.Condition
		if i == 0 {
			for _, p := range payments {
				conds = append(conds, coin.CreateCoin{
					PuzzleHash: p.PuzzleHash,
					Amount:     p.Amount,
					Memos:      p.Memos,
				})
			}
			if sel.Change > 0 {
				change := w.ChangePuzzleHash()
				conds = append(conds, coin.CreateCoin{
					PuzzleHash: change,
					Amount:     sel.Change,
					Memos:      [][]byte{change.Bytes()},
				})
			}
		}
		if err := w.appendSpend(bundle, c, conds); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

// appendSpend adds a signed pay-to-public-key spend carrying the given
// conditions.
func (w *Wallet) appendSpend(bundle *coin.SpendBundle, c coin.Coin, conds []coin.Condition) error {
	key, ok := w.keys[c.PuzzleHash]
	if !ok {
		return fmt.Errorf("no key for puzzle hash %s", c.PuzzleHash)
	}
	solution := puzzle.P2PubKeySolution(conds...)
	bundle.Spends = append(bundle.Spends, coin.NewSpend(c, puzzle.NewP2PubKey(key.PublicKey()), solution))

	// The p2 puzzle demands a signature over the condition list bound to
	// this coin's ID.
	condList, _ := solution.First()
	digest := crypto.HashOf(condList.TreeHash().Bytes(), c.ID().Bytes())
	sig, err := key.Sign(digest.Bytes())
	if err != nil {
		return fmt.Errorf("sign spend of %s: %w", c.ID(), err)
	}
	bundle.AddSignature(key.PublicKey(), sig)
	return nil
}
