// Package ledger maintains a local coin set and applies spend bundles to
// it. It backs tests and single-operator deployments where no external
// full node is involved; the unroll driver talks to it through the same
// interface it uses for a remote node.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/bagmint/bagmint/internal/log"
	"github.com/bagmint/bagmint/internal/rpcclient"
	"github.com/bagmint/bagmint/internal/storage"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/types"
)

var (
	ErrCoinNotFound     = errors.New("ledger: coin does not exist")
	ErrAlreadySpent     = errors.New("ledger: coin already spent")
	ErrBatchUnsupported = errors.New("ledger: database does not support batches")
)

// Ledger applies validated spend bundles to a persistent coin set. Every
// bundle lands at a new height; a bundle consuming a spent coin is
// rejected whole, which is how a lost mint/melt race surfaces.
type Ledger struct {
	mu     sync.Mutex
	store  *Store
	db     storage.DB
	height uint64
}

// namespace scopes the ledger's keys so it can share a database with
// other components.
var namespace = []byte("ledger/")

// New opens a ledger over its namespace of the given database.
func New(db storage.DB) (*Ledger, error) {
	scoped := storage.NewPrefixDB(db, namespace)
	l := &Ledger{store: NewStore(scoped), db: scoped}
	ok, err := l.db.Has(keyHeight)
	if err != nil {
		return nil, err
	}
	if ok {
		data, err := l.db.Get(keyHeight)
		if err != nil {
			return nil, err
		}
		if len(data) != 8 {
			return nil, fmt.Errorf("ledger: corrupt height record")
		}
		l.height = binary.BigEndian.Uint64(data)
	}
	return l, nil
}

// Height returns the number of applied bundles.
func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// AddCoin introduces a coin without a spend, used to seed genesis and
// funding coins.
func (l *Ledger) AddCoin(c coin.Coin) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch, err := l.newBatch()
	if err != nil {
		return err
	}
	next := l.height + 1
	if err := putRecord(batch, &rpcclient.CoinRecord{Coin: c, ConfirmedHeight: next}); err != nil {
		return err
	}
	return l.commit(batch, next)
}

// ApplyBundle validates a bundle and applies it at the next height. Either
// every removal is consumed and every addition created, or nothing changes.
func (l *Ledger) ApplyBundle(b *coin.SpendBundle) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.height + 1

	additions, err := b.Additions()
	if err != nil {
		return err
	}
	created := make(map[types.CoinID]bool, len(additions))
	for _, c := range additions {
		created[c.ID()] = true
	}

	// Check every removal before touching anything. A removal created by
	// this same bundle is ephemeral and needs no prior record.
	removals := b.Removals()
	records := make([]*rpcclient.CoinRecord, len(removals))
	for i, c := range removals {
		r, err := l.store.Get(c.ID())
		if err != nil {
			return err
		}
		if r == nil {
			if !created[c.ID()] {
				return fmt.Errorf("%w: %s", ErrCoinNotFound, c.ID())
			}
			r = &rpcclient.CoinRecord{Coin: c, ConfirmedHeight: next}
		}
		if r.Spent() {
			return fmt.Errorf("%w: %s", ErrAlreadySpent, c.ID())
		}
		records[i] = r
	}

	batch, err := l.newBatch()
	if err != nil {
		return err
	}
	// Additions first so spent marks on ephemeral coins survive.
	for _, c := range additions {
		if err := putRecord(batch, &rpcclient.CoinRecord{Coin: c, ConfirmedHeight: next}); err != nil {
			return err
		}
	}
	for _, r := range records {
		r.SpentHeight = next
		if err := putRecord(batch, r); err != nil {
			return err
		}
	}
	if err := l.commit(batch, next); err != nil {
		return err
	}

	log.Ledger.Debug().
		Uint64("height", next).
		Int("removals", len(removals)).
		Int("additions", len(additions)).
		Msg("bundle applied")
	return nil
}

func (l *Ledger) newBatch() (storage.Batch, error) {
	batcher, ok := l.db.(storage.Batcher)
	if !ok {
		return nil, ErrBatchUnsupported
	}
	return batcher.NewBatch(), nil
}

func (l *Ledger) commit(batch storage.Batch, next uint64) error {
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], next)
	if err := batch.Put(keyHeight, h[:]); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	l.height = next
	return nil
}

// GetCoinRecord returns the record for a coin, or nil if unknown.
func (l *Ledger) GetCoinRecord(id types.CoinID) (*rpcclient.CoinRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Get(id)
}

// PushBundle applies the bundle directly; the ledger is its own mempool.
// This makes *Ledger satisfy rpcclient.NodeClient for local operation.
func (l *Ledger) PushBundle(b *coin.SpendBundle) error {
	return l.ApplyBundle(b)
}

// UnspentByPuzzleHash returns all unspent coins locked by a puzzle hash.
func (l *Ledger) UnspentByPuzzleHash(puzzleHash types.Hash) ([]coin.Coin, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.ByPuzzleHash(puzzleHash)
	if err != nil {
		return nil, err
	}
	var out []coin.Coin
	for _, r := range records {
		if !r.Spent() {
			out = append(out, r.Coin)
		}
	}
	return out, nil
}
