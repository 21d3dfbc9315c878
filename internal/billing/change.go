package billing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/store"
)

// ChangeBreakdown is the payout plan for one settlement: the denominations
// actually used, largest value first, plus the portion that could not be
// represented when the till runs out.
type ChangeBreakdown struct {
	Used         []store.DenominationUse `json:"used"`
	Shortfall    decimal.Decimal         `json:"shortfall"`
	Insufficient bool                    `json:"insufficient"`
}

// MakeChange computes a greedy largest-denomination-first breakdown of amount
// against the till inventory. It never mutates the till; callers decide
// whether to apply the decrements.
//
// Greedy is not optimal-count: with a non-canonical denomination mix it can
// miss a valid breakdown that a different mix would find. Standard currency
// sets are canonical, so this matches how a cashier actually counts change.
func MakeChange(amount decimal.Decimal, till []store.Denomination) (ChangeBreakdown, error) {
	for _, d := range till {
		if d.Value <= 0 {
			return ChangeBreakdown{}, ErrInvalidAmount
		}
	}
	breakdown := ChangeBreakdown{Shortfall: decimal.Zero}
	if amount.Sign() <= 0 {
		return breakdown, nil
	}

	sorted := make([]store.Denomination, len(till))
	copy(sorted, till)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	remaining := amount
	for _, d := range sorted {
		if remaining.Sign() <= 0 {
			break
		}
		if d.Count <= 0 {
			continue
		}
		value := decimal.NewFromInt(d.Value)
		notes := remaining.Div(value).Floor().IntPart()
		if notes > int64(d.Count) {
			notes = int64(d.Count)
		}
		if notes <= 0 {
			continue
		}
		breakdown.Used = append(breakdown.Used, store.DenominationUse{Value: d.Value, Count: int(notes)})
		remaining = remaining.Sub(value.Mul(decimal.NewFromInt(notes)))
	}

	if remaining.Sign() > 0 {
		breakdown.Insufficient = true
		breakdown.Shortfall = remaining
	}
	return breakdown, nil
}
