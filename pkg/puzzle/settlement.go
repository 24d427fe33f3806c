package puzzle

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
)

// NewSettlement returns the uncurried exchange settlement puzzle. Anyone
// can spend a settlement coin, but only by paying out the notarized
// payments it announces, so the announcement is the proof the other side
// of the exchange relies on.
func NewSettlement() *Program {
	return New(SettlementPuzzleHash)
}

// SettlementSolution builds a solution paying out notarized payment groups:
// each group is (nonce payment...).
func SettlementSolution(groups ...*clvm.Value) *clvm.Value {
	return clvm.List(groups...)
}

func init() {
	register(SettlementPuzzleHash, runSettlement)
}

// runSettlement announces and pays each notarized payment group.
func runSettlement(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	if len(p.Args) != 0 {
		return nil, fmt.Errorf("%w: settlement takes no curried parameters", ErrBadParameter)
	}
	groups, ok := solution.ListItems()
	if !ok {
		return nil, fmt.Errorf("%w: settlement solution must be a list of payment groups", ErrBadSolution)
	}
	var conds []coin.Condition
	for i, group := range groups {
		items, ok := group.ListItems()
		if !ok || len(items) < 2 {
			return nil, fmt.Errorf("%w: payment group %d must be (nonce payment...)", ErrBadSolution, i)
		}
		if _, ok := items[0].AtomBytes(); !ok {
			return nil, fmt.Errorf("%w: payment group %d nonce must be an atom", ErrBadSolution, i)
		}
		conds = append(conds, coin.CreatePuzzleAnnouncement{Message: group.TreeHash().Bytes()})
		for j, item := range items[1:] {
			payment, err := coin.PaymentFromValue(item)
			if err != nil {
				return nil, fmt.Errorf("%w: group %d payment %d: %v", ErrBadSolution, i, j, err)
			}
			conds = append(conds, coin.CreateCoin{
				PuzzleHash: payment.PuzzleHash,
				Amount:     payment.Amount,
				Memos:      payment.Memos,
			})
		}
	}
	return conds, nil
}
