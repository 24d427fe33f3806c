package coin

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/types"
)

// PaymentFromValue decodes (puzzle_hash amount (memos...)).
func PaymentFromValue(v *clvm.Value) (Payment, error) {
	items, ok := v.ListItems()
	if !ok || len(items) < 2 {
		return Payment{}, fmt.Errorf("payment must be (puzzle_hash amount (memos...))")
	}
	phBytes, ok := items[0].AtomBytes()
	if !ok {
		return Payment{}, fmt.Errorf("payment puzzle hash must be an atom")
	}
	ph, err := types.BytesToHash(phBytes)
	if err != nil {
		return Payment{}, fmt.Errorf("payment puzzle hash: %w", err)
	}
	amount, err := clvm.Uint64FromValue(items[1])
	if err != nil {
		return Payment{}, fmt.Errorf("payment amount: %w", err)
	}
	p := Payment{PuzzleHash: ph, Amount: amount}
	if len(items) > 2 {
		memoItems, ok := items[2].ListItems()
		if !ok {
			return Payment{}, fmt.Errorf("payment memos must be a list")
		}
		for _, m := range memoItems {
			b, ok := m.AtomBytes()
			if !ok {
				return Payment{}, fmt.Errorf("payment memo must be an atom")
			}
			p.Memos = append(p.Memos, b)
		}
	}
	return p, nil
}

// PaymentsFromValue decodes a list of payments.
func PaymentsFromValue(v *clvm.Value) ([]Payment, error) {
	items, ok := v.ListItems()
	if !ok {
		return nil, fmt.Errorf("payments must form a proper list")
	}
	out := make([]Payment, 0, len(items))
	for i, item := range items {
		p, err := PaymentFromValue(item)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// PaymentsValue renders a list of payments.
func PaymentsValue(payments []Payment) *clvm.Value {
	items := make([]*clvm.Value, len(payments))
	for i, p := range payments {
		items[i] = p.ToValue()
	}
	return clvm.List(items...)
}
