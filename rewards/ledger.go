/*
ledger.go - One customer's transactions and per-payer totals

PURPOSE:
  The Ledger owns two collections: the transactions in arrival order and
  the payers in first-appearance order. Payer totals are derived from the
  transactions in a single aggregation pass and then decremented as points
  are spent.

CRITICAL INVARIANTS:
  1. ARRIVAL ORDER: transactions keep insertion order, not time order
  2. AGGREGATE ONCE: a second Aggregate() is rejected instead of
     double-counting
  3. CONSERVATION: between spends,
     sum(payer.TotalPoints) == sum(transaction.Points)
     (exact under ConsumeResidual; see spend.go for ConsumeStale)

LIFECYCLE:
  NewLedger()     -> empty, accepts AddTransaction
  Aggregate()     -> totals computed, no more additions
  Spend (engine)  -> totals decremented, exhausted transactions removed

  Build() performs the first two steps at once. Snapshot() freezes the
  post-aggregation view; Clone() hands out an independent working copy.

CONCURRENCY:
  Not safe for concurrent use. One Ledger per customer per request.

SEE ALSO:
  - spend.go: The only mutator besides AddTransaction/Aggregate
  - types.go: Transaction, Payer, Totals
*/
package rewards

import (
	"fmt"
	"time"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger holds a customer's transactions and the aggregated payer totals.
type Ledger struct {
	transactions []Transaction
	payers       []Payer
	payerIndex   map[string]int
	aggregated   bool
	snapshot     *Snapshot
}

// NewLedger returns an empty ledger ready for AddTransaction.
func NewLedger() *Ledger {
	return &Ledger{payerIndex: make(map[string]int)}
}

// Build adds every transaction in order and aggregates, returning a ledger
// ready to spend against.
func Build(txs []Transaction) (*Ledger, error) {
	l := NewLedger()
	for _, tx := range txs {
		if err := l.AddTransaction(tx.Payer, tx.Points, tx.Timestamp); err != nil {
			return nil, err
		}
	}
	if err := l.Aggregate(); err != nil {
		return nil, err
	}
	return l, nil
}

// AddTransaction appends a transaction. Payer totals are not touched until
// Aggregate runs.
func (l *Ledger) AddTransaction(payer string, points int64, timestamp time.Time) error {
	if l.aggregated {
		return ErrAlreadyAggregated
	}
	if payer == "" {
		return ErrInvalidTransaction
	}
	if !InPointsRange(points) {
		return fmt.Errorf("%w: %s %d", ErrPointsOutOfRange, payer, points)
	}
	l.transactions = append(l.transactions, Transaction{Payer: payer, Points: points, Timestamp: timestamp})
	return nil
}

// Aggregate folds every held transaction, in input order, into its payer's
// total, creating payers on first sight. It may run once per ledger.
func (l *Ledger) Aggregate() error {
	if l.aggregated {
		return ErrAlreadyAggregated
	}
	for _, tx := range l.transactions {
		i, ok := l.payerIndex[tx.Payer]
		if !ok {
			i = len(l.payers)
			l.payers = append(l.payers, Payer{Name: tx.Payer})
			l.payerIndex[tx.Payer] = i
		}
		l.payers[i].addPoints(tx.Points)
	}
	l.aggregated = true
	l.snapshot = newSnapshot(l)
	return nil
}

// Aggregated reports whether Aggregate has run.
func (l *Ledger) Aggregated() bool { return l.aggregated }

// OldestTransaction returns the held transaction with the earliest timestamp.
// On equal timestamps the one that arrived first wins, so repeated calls on
// an unmodified ledger return the same transaction.
func (l *Ledger) OldestTransaction() (Transaction, error) {
	i, err := l.oldestIndex()
	if err != nil {
		return Transaction{}, err
	}
	return l.transactions[i], nil
}

func (l *Ledger) oldestIndex() (int, error) {
	if len(l.transactions) == 0 {
		return -1, ErrEmptyLedger
	}
	oldest := 0
	for i := 1; i < len(l.transactions); i++ {
		if l.transactions[i].Timestamp.Before(l.transactions[oldest].Timestamp) {
			oldest = i
		}
	}
	return oldest, nil
}

// RemoveTransaction removes the first transaction matching all three fields.
// Returns *TransactionNotFoundError when nothing matches.
func (l *Ledger) RemoveTransaction(payer string, points int64, timestamp time.Time) error {
	for i, tx := range l.transactions {
		if tx.Matches(payer, points, timestamp) {
			l.removeAt(i)
			return nil
		}
	}
	return &TransactionNotFoundError{Payer: payer, Points: points, Timestamp: timestamp}
}

func (l *Ledger) removeAt(i int) {
	l.transactions = append(l.transactions[:i], l.transactions[i+1:]...)
}

// FindPayer looks up a payer by name.
func (l *Ledger) FindPayer(name string) (Payer, bool) {
	i, ok := l.payerIndex[name]
	if !ok {
		return Payer{}, false
	}
	return l.payers[i], true
}

func (l *Ledger) payer(name string) *Payer {
	i, ok := l.payerIndex[name]
	if !ok {
		return nil
	}
	return &l.payers[i]
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Len returns the number of transactions still held.
func (l *Ledger) Len() int { return len(l.transactions) }

// Transactions returns a copy of the held transactions in arrival order.
func (l *Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Payers returns a copy of the payers in first-appearance order.
func (l *Ledger) Payers() []Payer {
	out := make([]Payer, len(l.payers))
	copy(out, l.payers)
	return out
}

// Totals returns every payer's current total in first-appearance order.
func (l *Ledger) Totals() Totals {
	out := make(Totals, len(l.payers))
	for i, p := range l.payers {
		out[i] = PayerTotal{Payer: p.Name, Points: p.TotalPoints}
	}
	return out
}

// TotalPoints sums the points of the held transactions.
func (l *Ledger) TotalPoints() int64 {
	var sum int64
	for _, tx := range l.transactions {
		sum += tx.Points
	}
	return sum
}

// Snapshot returns the frozen post-aggregation view, or nil before Aggregate.
func (l *Ledger) Snapshot() *Snapshot { return l.snapshot }

// Clone returns an independent copy that can be spent against without
// touching l. The snapshot is shared since it never changes.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		transactions: l.Transactions(),
		payers:       l.Payers(),
		payerIndex:   make(map[string]int, len(l.payerIndex)),
		aggregated:   l.aggregated,
		snapshot:     l.snapshot,
	}
	for k, v := range l.payerIndex {
		c.payerIndex[k] = v
	}
	return c
}
