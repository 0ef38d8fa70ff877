package rewards

import "fmt"

// =============================================================================
// SNAPSHOT - Frozen post-aggregation state
// =============================================================================

// Snapshot captures a ledger right after aggregation. It is never mutated,
// so callers can compare before/after a spend or rebuild a fresh working
// ledger without re-reading the record source.
type Snapshot struct {
	transactions []Transaction
	totals       Totals
}

func newSnapshot(l *Ledger) *Snapshot {
	return &Snapshot{
		transactions: l.Transactions(),
		totals:       l.Totals(),
	}
}

// Transactions returns a copy of the aggregated transactions in arrival order.
func (s *Snapshot) Transactions() []Transaction {
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Totals returns a copy of the per-payer totals at aggregation time.
func (s *Snapshot) Totals() Totals {
	out := make(Totals, len(s.totals))
	copy(out, s.totals)
	return out
}

// TotalPoints is the sum of all aggregated transactions.
func (s *Snapshot) TotalPoints() int64 { return s.totals.Sum() }

// Ledger rebuilds a fresh, aggregated working ledger from the snapshot.
func (s *Snapshot) Ledger() (*Ledger, error) {
	l, err := Build(s.transactions)
	if err != nil {
		return nil, fmt.Errorf("rebuild from snapshot: %w", err)
	}
	return l, nil
}
