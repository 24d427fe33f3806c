package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/bagmint/bagmint/internal/rpcclient"
	"github.com/bagmint/bagmint/internal/storage"
	"github.com/bagmint/bagmint/pkg/types"
)

// Key prefixes for the coin store.
var (
	prefixCoin   = []byte("c/") // c/<coin id> -> CoinRecord JSON
	prefixPuzzle = []byte("p/") // p/<puzzle hash><coin id> -> empty (index)
	keyHeight    = []byte("h")  // current height
)

// Store persists coin records backed by a storage.DB.
type Store struct {
	db storage.DB
}

// NewStore creates a coin store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// coinKey builds a storage key for a coin: "c/" + id(32).
func coinKey(id types.CoinID) []byte {
	key := make([]byte, len(prefixCoin)+types.HashSize)
	copy(key, prefixCoin)
	copy(key[len(prefixCoin):], id.Bytes())
	return key
}

// puzzleKey builds a puzzle-hash index key: "p/" + hash(32) + id(32).
func puzzleKey(puzzleHash types.Hash, id types.CoinID) []byte {
	key := make([]byte, len(prefixPuzzle)+2*types.HashSize)
	copy(key, prefixPuzzle)
	copy(key[len(prefixPuzzle):], puzzleHash.Bytes())
	copy(key[len(prefixPuzzle)+types.HashSize:], id.Bytes())
	return key
}

// Get retrieves a coin record by ID. Returns nil when the coin is unknown.
func (s *Store) Get(id types.CoinID) (*rpcclient.CoinRecord, error) {
	ok, err := s.db.Has(coinKey(id))
	if err != nil {
		return nil, fmt.Errorf("coin has: %w", err)
	}
	if !ok {
		return nil, nil
	}
	data, err := s.db.Get(coinKey(id))
	if err != nil {
		return nil, fmt.Errorf("coin get: %w", err)
	}
	var r rpcclient.CoinRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("coin unmarshal: %w", err)
	}
	return &r, nil
}

// putRecord writes a record and its puzzle-hash index entry into a batch.
func putRecord(b storage.Batch, r *rpcclient.CoinRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("coin marshal: %w", err)
	}
	id := r.Coin.ID()
	if err := b.Put(coinKey(id), data); err != nil {
		return fmt.Errorf("coin put: %w", err)
	}
	if err := b.Put(puzzleKey(r.Coin.PuzzleHash, id), []byte{}); err != nil {
		return fmt.Errorf("coin index put: %w", err)
	}
	return nil
}

// ByPuzzleHash returns the records of all coins with the given puzzle hash.
func (s *Store) ByPuzzleHash(puzzleHash types.Hash) ([]*rpcclient.CoinRecord, error) {
	prefix := make([]byte, len(prefixPuzzle)+types.HashSize)
	copy(prefix, prefixPuzzle)
	copy(prefix[len(prefixPuzzle):], puzzleHash.Bytes())

	var out []*rpcclient.CoinRecord
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		idBytes := key[len(prefix):]
		id, err := types.BytesToHash(idBytes)
		if err != nil {
			return fmt.Errorf("coin index key: %w", err)
		}
		r, err := s.Get(types.CoinID(id))
		if err != nil {
			return err
		}
		if r != nil {
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
