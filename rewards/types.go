/*
Package rewards provides the point-reward ledger and the spend engine.

PURPOSE:
  A customer collects points from several reward-issuing partners (payers).
  This package keeps those earning events in a Ledger, aggregates them into
  per-payer totals, and spends a requested amount oldest-transaction-first.
  There is no I/O here: records come in already parsed, results go out as
  in-memory values. Record parsing lives in source/, storage in store/.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: One earning (positive) or reversal (negative) event
  - Payer: Running per-partner balance derived from transactions
  - Totals: Ordered payer -> points result, serialised as a flat JSON object

DATA FLOW:
  1. Records are added to a Ledger in arrival order
  2. Aggregate() folds them into per-payer totals (exactly once)
  3. SpendEngine depletes the globally oldest transaction first
  4. Totals come back in the payers' first-appearance order

EXAMPLE:
  l, _ := rewards.Build([]rewards.Transaction{
      {Payer: "DANNON", Points: 300, Timestamp: t1},
      {Payer: "UNILEVER", Points: 200, Timestamp: t2},
  })
  totals, err := rewards.NewSpendEngine().Spend(l, 100)
  // totals: {"DANNON": 200, "UNILEVER": 200}

SEE ALSO:
  - ledger.go: Ledger operations and invariants
  - spend.go: Oldest-first spend algorithm
  - errors.go: Sentinel and structured errors
*/
package rewards

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Bounds for a single transaction and for a spend request. Partner feeds
// carry 32-bit values, which keeps every sum the ledger and the spend loop
// compute well inside int64.
const (
	MaxPoints = math.MaxInt32
	MinPoints = math.MinInt32
)

// InPointsRange reports whether n is an accepted point value.
func InPointsRange(n int64) bool {
	return n >= MinPoints && n <= MaxPoints
}

// =============================================================================
// TRANSACTION - Immutable earning/reversal record
// =============================================================================

// Transaction is one point event attributed to a payer.
// Negative Points represent a reversal issued by the payer itself, not a spend.
//
// There is no surrogate key: the triple (Payer, Points, Timestamp) is the
// identity, so two records with the same triple are indistinguishable.
type Transaction struct {
	Payer     string    `json:"payer"`
	Points    int64     `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// Matches reports whether t has exactly the given identity triple.
func (t Transaction) Matches(payer string, points int64, timestamp time.Time) bool {
	return t.Payer == payer && t.Points == points && t.Timestamp.Equal(timestamp)
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %+d @ %s", t.Payer, t.Points, t.Timestamp.UTC().Format(time.RFC3339))
}

// =============================================================================
// PAYER - Mutable per-partner aggregate
// =============================================================================

// Payer is the running balance for one reward partner.
// TotalPoints may be negative: reversals and spends are not floored.
type Payer struct {
	Name        string
	TotalPoints int64
}

func (p *Payer) addPoints(n int64)    { p.TotalPoints += n }
func (p *Payer) removePoints(n int64) { p.TotalPoints -= n }

// =============================================================================
// TOTALS - Ordered spend result
// =============================================================================

// PayerTotal is a single entry of Totals.
type PayerTotal struct {
	Payer  string `json:"payer"`
	Points int64  `json:"points"`
}

// Totals maps payer name to points while keeping first-appearance order.
// It marshals to a flat JSON object: {"DANNON": 1000, "UNILEVER": 0}.
type Totals []PayerTotal

// Get returns the points for payer and whether the payer is present.
func (t Totals) Get(payer string) (int64, bool) {
	for _, e := range t {
		if e.Payer == payer {
			return e.Points, true
		}
	}
	return 0, false
}

// Sum returns the total points across every payer.
func (t Totals) Sum() int64 {
	var sum int64
	for _, e := range t {
		sum += e.Points
	}
	return sum
}

// Map returns an unordered copy, convenient for comparisons.
func (t Totals) Map() map[string]int64 {
	m := make(map[string]int64, len(t))
	for _, e := range t {
		m[e.Payer] = e.Points
	}
	return m
}

// MarshalJSON writes the entries as object members in order.
// encoding/json sorts map keys, so the object is assembled by hand.
func (t Totals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Payer)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", e.Points)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object back, preserving member order.
func (t *Totals) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("totals: expected object, got %v", tok)
	}

	var out Totals
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("totals: expected string key, got %v", keyTok)
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("totals: value for %q: %w", key, err)
		}
		v, err := n.Int64()
		if err != nil {
			return fmt.Errorf("totals: value for %q: %w", key, err)
		}
		out = append(out, PayerTotal{Payer: key, Points: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = out
	return nil
}

// =============================================================================
// RECEIPT - What a spend consumed
// =============================================================================

// Debit records points taken from one transaction during a spend.
type Debit struct {
	Transaction Transaction `json:"transaction"`
	Points      int64       `json:"points"`
	// Exhausted is true when the transaction was removed from the ledger.
	Exhausted bool `json:"exhausted"`
}

// Receipt is the detailed outcome of a spend.
type Receipt struct {
	Requested int64   `json:"requested"`
	Debits    []Debit `json:"debits"`
	// Deltas is the net change per payer (negative for points spent), in
	// first-appearance order. Payers the spend never touched are omitted.
	Deltas Totals `json:"deltas"`
	// Totals holds every payer's balance after the spend.
	Totals Totals `json:"totals"`
}
