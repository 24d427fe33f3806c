package rpcclient

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

// CoinRecord is the node's view of a coin: the coin itself plus the block
// indexes where it was created and, if ever, spent.
type CoinRecord struct {
	Coin            coin.Coin `json:"coin"`
	ConfirmedHeight uint64    `json:"confirmed_block_index"`
	SpentHeight     uint64    `json:"spent_block_index"`
}

// Spent reports whether the coin has been consumed.
func (r *CoinRecord) Spent() bool {
	return r.SpentHeight > 0
}

// NodeClient is the slice of the full-node API the unroll and mint drivers
// need. *Client implements it; tests substitute an in-process ledger.
type NodeClient interface {
	// GetCoinRecord returns the record for a coin ID, or nil if the node
	// has never seen the coin.
	GetCoinRecord(id types.CoinID) (*CoinRecord, error)
	// PushBundle submits a spend bundle to the mempool.
	PushBundle(b *coin.SpendBundle) error
}

// GetCoinRecord fetches a coin record by ID. A nil record without error
// means the coin does not exist yet.
func (c *Client) GetCoinRecord(id types.CoinID) (*CoinRecord, error) {
	params := map[string]string{"name": id.String()}
	var result struct {
		CoinRecord *CoinRecord `json:"coin_record"`
	}
	if err := c.Call("get_coin_record_by_name", params, &result); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == CodeCoinNotFound {
			return nil, nil
		}
		return nil, err
	}
	return result.CoinRecord, nil
}

// CodeCoinNotFound is the node's error code for an unknown coin ID.
const CodeCoinNotFound = -32001

// UnspentByPuzzleHash lists the unspent coins locked by a puzzle hash.
func (c *Client) UnspentByPuzzleHash(puzzleHash types.Hash) ([]coin.Coin, error) {
	params := map[string]interface{}{
		"puzzle_hash":         puzzleHash.String(),
		"include_spent_coins": false,
	}
	var result struct {
		CoinRecords []CoinRecord `json:"coin_records"`
	}
	if err := c.Call("get_coin_records_by_puzzle_hash", params, &result); err != nil {
		return nil, err
	}
	var coins []coin.Coin
	for _, r := range result.CoinRecords {
		if !r.Spent() {
			coins = append(coins, r.Coin)
		}
	}
	return coins, nil
}

// PushBundle serializes and submits a spend bundle.
func (c *Client) PushBundle(b *coin.SpendBundle) error {
	wire, err := bundleWire(b)
	if err != nil {
		return err
	}
	var result struct {
		Status string `json:"status"`
	}
	if err := c.Call("push_tx", map[string]interface{}{"spend_bundle": wire}, &result); err != nil {
		return err
	}
	if result.Status != "SUCCESS" {
		return fmt.Errorf("push_tx: status %q", result.Status)
	}
	return nil
}

// Wire forms for bundle submission. Puzzle reveals ride as their JSON
// program encoding; solutions as serialized hex.

type spendWire struct {
	Coin         coin.Coin       `json:"coin"`
	PuzzleReveal json.RawMessage `json:"puzzle_reveal"`
	Solution     string          `json:"solution"`
}

type bundleJSON struct {
	Spends     []spendWire            `json:"coin_spends"`
	Signatures []coin.BundleSignature `json:"signatures"`
}

func bundleWire(b *coin.SpendBundle) (*bundleJSON, error) {
	out := &bundleJSON{Signatures: b.Signatures}
	for i, s := range b.Spends {
		p, ok := s.Puzzle.(*puzzle.Program)
		if !ok {
			return nil, fmt.Errorf("spend %d: puzzle is not a program reveal", i)
		}
		reveal, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("spend %d: %w", i, err)
		}
		out.Spends = append(out.Spends, spendWire{
			Coin:         s.Coin,
			PuzzleReveal: reveal,
			Solution:     clvm.SerializeHex(s.Solution),
		})
	}
	return out, nil
}
