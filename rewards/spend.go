/*
spend.go - Oldest-first spend algorithm

PURPOSE:
  Spends a requested amount against a Ledger by repeatedly taking the
  globally oldest remaining transaction and debiting it (and its payer)
  until the amount is covered or the ledger runs dry.

ALGORITHM:
  remaining := amount
  while remaining > 0:
      oldest := ledger.OldestTransaction()     // ErrEmptyLedger -> InsufficientPoints
      if oldest.Points > remaining:
          debit remaining from oldest.Payer; done
      else:
          debit oldest.Points from oldest.Payer
          remaining -= oldest.Points
          remove oldest

  A negative transaction reaching the front takes the second branch: its
  payer is credited back and remaining grows. Every pass either removes a
  transaction or ends the loop, so the loop runs at most Len()+1 times.

PARTIAL CONSUMPTION:
  When the oldest transaction is larger than what is left to spend, only
  part of it is used. Two modes decide what happens to the record:

    ConsumeResidual (default): the record keeps the unspent residual and
      is removed once the residual reaches zero. Transaction-level and
      payer-level totals agree after every spend.

    ConsumeStale: the record keeps its original points; only the payer
      total changes. A later spend on the same ledger will see the full
      original amount again.

PAYER BALANCES:
  Payer totals are NOT floored at zero. Only the overall requested amount
  must be covered by the ledger.

FAILURE:
  Running out of transactions returns *InsufficientPointsError. The ledger
  is left as it was at exhaustion; callers needing all-or-nothing spend
  against Clone() or Snapshot().Ledger() and keep the original on
  failure (see service/).

SEE ALSO:
  - ledger.go: OldestTransaction tie-break rule
  - service/service.go: All-or-nothing wrapper
*/
package rewards

import (
	"fmt"
)

// =============================================================================
// CONSUMPTION MODE
// =============================================================================

// ConsumptionMode controls how a partially consumed transaction is recorded.
type ConsumptionMode string

const (
	ConsumeResidual ConsumptionMode = "residual"
	ConsumeStale    ConsumptionMode = "stale"
)

// ParseConsumptionMode maps a config/flag value to a mode. Empty means default.
func ParseConsumptionMode(s string) (ConsumptionMode, error) {
	switch ConsumptionMode(s) {
	case "", ConsumeResidual:
		return ConsumeResidual, nil
	case ConsumeStale:
		return ConsumeStale, nil
	}
	return "", fmt.Errorf("unknown consumption mode %q (want %q or %q)", s, ConsumeResidual, ConsumeStale)
}

// =============================================================================
// SPEND ENGINE
// =============================================================================

// SpendEngine spends points oldest-transaction-first.
// The zero value uses ConsumeResidual.
type SpendEngine struct {
	Mode ConsumptionMode
}

// NewSpendEngine returns an engine using the default consumption mode.
func NewSpendEngine() *SpendEngine {
	return &SpendEngine{Mode: ConsumeResidual}
}

// Spend debits amount from l and returns every payer's resulting total in
// first-appearance order.
func (e *SpendEngine) Spend(l *Ledger, amount int64) (Totals, error) {
	receipt, err := e.SpendWithReceipt(l, amount)
	if err != nil {
		return nil, err
	}
	return receipt.Totals, nil
}

// SpendWithReceipt is Spend plus the list of debits and per-payer deltas.
// On *InsufficientPointsError the returned receipt describes the debits
// applied before the ledger ran dry.
func (e *SpendEngine) SpendWithReceipt(l *Ledger, amount int64) (Receipt, error) {
	receipt := Receipt{Requested: amount}

	if amount < 0 {
		return receipt, ErrNegativeAmount
	}
	if amount > MaxPoints {
		return receipt, fmt.Errorf("%w: spend %d", ErrPointsOutOfRange, amount)
	}
	if !l.Aggregated() {
		return receipt, ErrNotAggregated
	}

	remaining := amount
	for remaining > 0 {
		i, err := l.oldestIndex()
		if err != nil {
			receipt.Deltas = deltas(l, receipt.Debits)
			receipt.Totals = l.Totals()
			return receipt, &InsufficientPointsError{
				Requested: amount,
				Spent:     amount - remaining,
				Shortfall: remaining,
			}
		}

		oldest := l.transactions[i]
		available := oldest.Points
		payer := l.payer(oldest.Payer)

		if available > remaining {
			payer.removePoints(remaining)
			receipt.Debits = append(receipt.Debits, Debit{Transaction: oldest, Points: remaining})
			if e.mode() == ConsumeResidual {
				l.transactions[i].Points -= remaining
			}
			remaining = 0
			break
		}

		payer.removePoints(available)
		remaining -= available
		receipt.Debits = append(receipt.Debits, Debit{Transaction: oldest, Points: available, Exhausted: true})
		if err := l.RemoveTransaction(oldest.Payer, oldest.Points, oldest.Timestamp); err != nil {
			return receipt, fmt.Errorf("spend: %w", err)
		}
	}

	receipt.Deltas = deltas(l, receipt.Debits)
	receipt.Totals = l.Totals()
	return receipt, nil
}

func (e *SpendEngine) mode() ConsumptionMode {
	if e == nil || e.Mode == "" {
		return ConsumeResidual
	}
	return e.Mode
}

// deltas nets debits per payer, ordered by the ledger's payer order.
func deltas(l *Ledger, debits []Debit) Totals {
	if len(debits) == 0 {
		return Totals{}
	}
	net := make(map[string]int64)
	for _, d := range debits {
		net[d.Transaction.Payer] -= d.Points
	}
	out := make(Totals, 0, len(net))
	for _, p := range l.payers {
		if v, ok := net[p.Name]; ok {
			out = append(out, PayerTotal{Payer: p.Name, Points: v})
		}
	}
	return out
}
