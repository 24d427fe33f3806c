package puzzle

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
)

// NewP2PubKey builds the standard wallet puzzle for a public key. The key
// signs the tree hash of the delegated condition list, so a solution is
// only as good as the signature covering it.
func NewP2PubKey(pubKey []byte) *Program {
	return New(P2PubKeyModHash, clvm.Atom(pubKey))
}

// P2PubKeySolution builds (conditions) from a delegated condition list.
func P2PubKeySolution(conds ...coin.Condition) *clvm.Value {
	items := make([]*clvm.Value, len(conds))
	for i, c := range conds {
		items[i] = c.ToValue()
	}
	return clvm.List(clvm.List(items...))
}

func init() {
	register(P2PubKeyModHash, runP2PubKey)
}

// runP2PubKey emits the solved conditions plus a signature requirement
// binding the key to exactly that condition list.
func runP2PubKey(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	pubKey, err := p.argBytes(0)
	if err != nil {
		return nil, err
	}
	if len(pubKey) != crypto.PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", ErrBadParameter, crypto.PublicKeySize)
	}
	items, ok := solution.ListItems()
	if !ok || len(items) != 1 {
		return nil, fmt.Errorf("%w: expected (conditions)", ErrBadSolution)
	}
	condItems, ok := items[0].ListItems()
	if !ok {
		return nil, fmt.Errorf("%w: conditions must form a proper list", ErrBadSolution)
	}
	conds := make([]coin.Condition, 0, len(condItems)+1)
	conds = append(conds, coin.AggSigMe{
		PublicKey: pubKey,
		Message:   items[0].TreeHash().Bytes(),
	})
	for i, item := range condItems {
		c, err := coin.ConditionFromValue(item)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		conds = append(conds, c)
	}
	return conds, nil
}
