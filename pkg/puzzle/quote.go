package puzzle

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
)

// Quote builds a quoted-condition puzzle: (1 . conditions). Running it
// yields exactly the embedded conditions regardless of solution, which is
// what makes commitment-tree nodes content-addressed: the puzzle hash is a
// pure function of the conditions.
func Quote(conds ...coin.Condition) *Program {
	items := make([]*clvm.Value, len(conds))
	for i, c := range conds {
		items[i] = c.ToValue()
	}
	return &Program{Body: clvm.Pair(clvm.Int(1), clvm.List(items...))}
}

// runQuoted evaluates a quoted body. The solution is ignored: a quoted
// puzzle hardcodes its spends and accepts no input.
func runQuoted(body *clvm.Value) ([]coin.Condition, error) {
	first, ok := body.First()
	if !ok {
		return nil, fmt.Errorf("%w: quoted body is an atom", ErrBadSolution)
	}
	op, err := clvm.Uint64FromValue(first)
	if err != nil || op != 1 {
		return nil, fmt.Errorf("quoted body must start with the quote operator")
	}
	rest, _ := body.Rest()
	items, ok := rest.ListItems()
	if !ok {
		return nil, fmt.Errorf("quoted conditions must form a proper list")
	}
	conds := make([]coin.Condition, 0, len(items))
	for i, item := range items {
		c, err := coin.ConditionFromValue(item)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		conds = append(conds, c)
	}
	return conds, nil
}
