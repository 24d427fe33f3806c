package coin

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/types"
)

// Opcode identifies a spend condition.
type Opcode uint8

// Condition opcodes.
const (
	OpAggSigMe                 Opcode = 50
	OpCreateCoin               Opcode = 51
	OpCreateCoinAnnouncement   Opcode = 60
	OpAssertCoinAnnouncement   Opcode = 61
	OpCreatePuzzleAnnouncement Opcode = 62
	OpAssertPuzzleAnnouncement Opcode = 63
	OpAssertMyCoinID           Opcode = 70
	OpRequireTradePrices       Opcode = 90
)

// Condition is a single requirement or output emitted by running a puzzle.
type Condition interface {
	Opcode() Opcode
	// ToValue renders the condition as (opcode arg1 arg2 ...), the form
	// embedded in quoted-condition puzzles and hashed into the tree.
	ToValue() *clvm.Value
}

// Payment is one requested output: puzzle hash, amount, and hint memos.
type Payment struct {
	PuzzleHash types.Hash
	Amount     uint64
	Memos      [][]byte
}

// ToValue renders the payment as (puzzle_hash amount (memos...)).
func (p Payment) ToValue() *clvm.Value {
	memos := make([]*clvm.Value, len(p.Memos))
	for i, m := range p.Memos {
		memos[i] = clvm.Atom(m)
	}
	return clvm.List(clvm.Bytes32(p.PuzzleHash), clvm.Int(p.Amount), clvm.List(memos...))
}

// CreateCoin creates one child coin.
type CreateCoin struct {
	PuzzleHash types.Hash
	Amount     uint64
	Memos      [][]byte
}

func (c CreateCoin) Opcode() Opcode { return OpCreateCoin }

func (c CreateCoin) ToValue() *clvm.Value {
	memos := make([]*clvm.Value, len(c.Memos))
	for i, m := range c.Memos {
		memos[i] = clvm.Atom(m)
	}
	return clvm.List(
		clvm.Int(uint64(OpCreateCoin)),
		clvm.Bytes32(c.PuzzleHash),
		clvm.Int(c.Amount),
		clvm.List(memos...),
	)
}

// CreateCoinAnnouncement publishes a message bound to the spent coin's ID.
type CreateCoinAnnouncement struct {
	Message []byte
}

func (c CreateCoinAnnouncement) Opcode() Opcode { return OpCreateCoinAnnouncement }

func (c CreateCoinAnnouncement) ToValue() *clvm.Value {
	return clvm.List(clvm.Int(uint64(OpCreateCoinAnnouncement)), clvm.Atom(c.Message))
}

// AssertCoinAnnouncement requires that some spend in the same bundle
// created a coin announcement with the given ID.
type AssertCoinAnnouncement struct {
	AnnouncementID types.Hash
}

func (c AssertCoinAnnouncement) Opcode() Opcode { return OpAssertCoinAnnouncement }

func (c AssertCoinAnnouncement) ToValue() *clvm.Value {
	return clvm.List(clvm.Int(uint64(OpAssertCoinAnnouncement)), clvm.Bytes32(c.AnnouncementID))
}

// CreatePuzzleAnnouncement publishes a message bound to the spent coin's
// puzzle hash.
type CreatePuzzleAnnouncement struct {
	Message []byte
}

func (c CreatePuzzleAnnouncement) Opcode() Opcode { return OpCreatePuzzleAnnouncement }

func (c CreatePuzzleAnnouncement) ToValue() *clvm.Value {
	return clvm.List(clvm.Int(uint64(OpCreatePuzzleAnnouncement)), clvm.Atom(c.Message))
}

// AssertPuzzleAnnouncement requires a puzzle announcement with the given ID.
type AssertPuzzleAnnouncement struct {
	AnnouncementID types.Hash
}

func (c AssertPuzzleAnnouncement) Opcode() Opcode { return OpAssertPuzzleAnnouncement }

func (c AssertPuzzleAnnouncement) ToValue() *clvm.Value {
	return clvm.List(clvm.Int(uint64(OpAssertPuzzleAnnouncement)), clvm.Bytes32(c.AnnouncementID))
}

// AssertMyCoinID requires that the spent coin's actual ID equals the given
// value. The ledger verifies this independently from the spent coin, so an
// ID supplied in a solution cannot be forged.
type AssertMyCoinID struct {
	ID types.CoinID
}

func (c AssertMyCoinID) Opcode() Opcode { return OpAssertMyCoinID }

func (c AssertMyCoinID) ToValue() *clvm.Value {
	return clvm.List(clvm.Int(uint64(OpAssertMyCoinID)), clvm.Bytes32(types.Hash(c.ID)))
}

// AggSigMe requires a signature over H(message || coin id) by the given key.
// Binding the coin ID into the digest stops replay against other coins.
type AggSigMe struct {
	PublicKey []byte
	Message   []byte
}

func (c AggSigMe) Opcode() Opcode { return OpAggSigMe }

func (c AggSigMe) ToValue() *clvm.Value {
	return clvm.List(clvm.Int(uint64(OpAggSigMe)), clvm.Atom(c.PublicKey), clvm.Atom(c.Message))
}

// RequireTradePrices is the offer directive: the settlement spend must
// publish the notarized payment list and actually create every payment in
// it. Claiming the minted item is only valid as one leg of the exchange.
type RequireTradePrices struct {
	SettlementPuzzleHash types.Hash
	Nonce                types.Hash
	Payments             []Payment
}

func (c RequireTradePrices) Opcode() Opcode { return OpRequireTradePrices }

func (c RequireTradePrices) ToValue() *clvm.Value {
	payments := make([]*clvm.Value, len(c.Payments))
	for i, p := range c.Payments {
		payments[i] = p.ToValue()
	}
	return clvm.List(
		clvm.Int(uint64(OpRequireTradePrices)),
		clvm.Bytes32(c.SettlementPuzzleHash),
		clvm.Bytes32(c.Nonce),
		clvm.List(payments...),
	)
}

// NotarizedPaymentsValue renders (nonce payment payment ...), the value
// whose tree hash the settlement puzzle announces.
func NotarizedPaymentsValue(nonce types.Hash, payments []Payment) *clvm.Value {
	items := make([]*clvm.Value, 0, len(payments)+1)
	items = append(items, clvm.Bytes32(nonce))
	for _, p := range payments {
		items = append(items, p.ToValue())
	}
	return clvm.List(items...)
}

// CoinAnnouncementID derives the bundle-wide ID of a coin announcement.
func CoinAnnouncementID(coinID types.CoinID, message []byte) types.Hash {
	return crypto.HashOf(coinID.Bytes(), message)
}

// PuzzleAnnouncementID derives the bundle-wide ID of a puzzle announcement.
func PuzzleAnnouncementID(puzzleHash types.Hash, message []byte) types.Hash {
	return crypto.HashOf(puzzleHash.Bytes(), message)
}

// ConditionFromValue decodes a (opcode args...) list back into a typed
// condition. Used when evaluating quoted-condition puzzles.
func ConditionFromValue(v *clvm.Value) (Condition, error) {
	items, ok := v.ListItems()
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("condition must be a non-empty list")
	}
	op, err := clvm.Uint64FromValue(items[0])
	if err != nil {
		return nil, fmt.Errorf("condition opcode: %w", err)
	}
	args := items[1:]

	switch Opcode(op) {
	case OpCreateCoin:
		if len(args) < 2 {
			return nil, fmt.Errorf("create coin needs puzzle hash and amount")
		}
		ph, err := atomHash(args[0])
		if err != nil {
			return nil, fmt.Errorf("create coin puzzle hash: %w", err)
		}
		amount, err := clvm.Uint64FromValue(args[1])
		if err != nil {
			return nil, fmt.Errorf("create coin amount: %w", err)
		}
		var memos [][]byte
		if len(args) > 2 {
			memoItems, ok := args[2].ListItems()
			if !ok {
				return nil, fmt.Errorf("create coin memos must be a list")
			}
			for _, m := range memoItems {
				b, ok := m.AtomBytes()
				if !ok {
					return nil, fmt.Errorf("create coin memo must be an atom")
				}
				memos = append(memos, b)
			}
		}
		return CreateCoin{PuzzleHash: ph, Amount: amount, Memos: memos}, nil

	case OpCreateCoinAnnouncement:
		if len(args) != 1 {
			return nil, fmt.Errorf("coin announcement needs one argument")
		}
		msg, ok := args[0].AtomBytes()
		if !ok {
			return nil, fmt.Errorf("coin announcement message must be an atom")
		}
		return CreateCoinAnnouncement{Message: msg}, nil

	case OpAssertCoinAnnouncement:
		if len(args) != 1 {
			return nil, fmt.Errorf("assert coin announcement needs one argument")
		}
		id, err := atomHash(args[0])
		if err != nil {
			return nil, err
		}
		return AssertCoinAnnouncement{AnnouncementID: id}, nil

	case OpCreatePuzzleAnnouncement:
		if len(args) != 1 {
			return nil, fmt.Errorf("puzzle announcement needs one argument")
		}
		msg, ok := args[0].AtomBytes()
		if !ok {
			return nil, fmt.Errorf("puzzle announcement message must be an atom")
		}
		return CreatePuzzleAnnouncement{Message: msg}, nil

	case OpAssertPuzzleAnnouncement:
		if len(args) != 1 {
			return nil, fmt.Errorf("assert puzzle announcement needs one argument")
		}
		id, err := atomHash(args[0])
		if err != nil {
			return nil, err
		}
		return AssertPuzzleAnnouncement{AnnouncementID: id}, nil

	case OpAssertMyCoinID:
		if len(args) != 1 {
			return nil, fmt.Errorf("assert my coin id needs one argument")
		}
		id, err := atomHash(args[0])
		if err != nil {
			return nil, err
		}
		return AssertMyCoinID{ID: types.CoinID(id)}, nil

	case OpAggSigMe:
		if len(args) != 2 {
			return nil, fmt.Errorf("agg sig needs public key and message")
		}
		pk, ok := args[0].AtomBytes()
		if !ok {
			return nil, fmt.Errorf("agg sig public key must be an atom")
		}
		msg, ok := args[1].AtomBytes()
		if !ok {
			return nil, fmt.Errorf("agg sig message must be an atom")
		}
		return AggSigMe{PublicKey: pk, Message: msg}, nil

	default:
		return nil, fmt.Errorf("unknown condition opcode %d", op)
	}
}

func atomHash(v *clvm.Value) (types.Hash, error) {
	b, ok := v.AtomBytes()
	if !ok {
		return types.Hash{}, fmt.Errorf("expected 32-byte atom, got pair")
	}
	return types.BytesToHash(b)
}
