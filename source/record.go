/*
Package source turns external transaction feeds into ledger input.

PURPOSE:
  Partners deliver point events as CSV exports or JSON documents. This
  package parses those feeds into Records, rejecting malformed rows with a
  MalformedRecordError before anything reaches the ledger. The core never
  sees a partially parsed transaction.

FORMATS:
  CSV:  header row naming payer, points, timestamp (any order, quotes ok)
        "DANNON",1000,"2020-11-02T14:00:00Z"
  JSON: [{"payer":"DANNON","points":1000,"timestamp":"2020-11-02T14:00:00Z"}]

TIMESTAMPS:
  RFC 3339, plus the zone forms of the legacy export: Z, +07, +0700.

POINTS:
  Parsed with shopspring/decimal so "1e3" and "1000.0" are accepted as
  whole numbers while "10.5" or values outside the 32-bit range are
  rejected.

SEE ALSO:
  - rewards/: Consumes []rewards.Transaction built from Records
  - store/: Persists Records per customer
*/
package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/points-engine/rewards"
)

// =============================================================================
// RECORD
// =============================================================================

// Record is one parsed feed row, arrival order preserved by the caller.
type Record struct {
	Payer     string    `json:"payer"`
	Points    int64     `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// Transaction converts the record into ledger input.
func (r Record) Transaction() rewards.Transaction {
	return rewards.Transaction{Payer: r.Payer, Points: r.Points, Timestamp: r.Timestamp}
}

// ToTransactions converts records in order.
func ToTransactions(records []Record) []rewards.Transaction {
	txs := make([]rewards.Transaction, len(records))
	for i, r := range records {
		txs[i] = r.Transaction()
	}
	return txs
}

// Validate checks a record built outside the parsers (API bodies, stores).
func (r Record) Validate() error {
	if strings.TrimSpace(r.Payer) == "" {
		return &MalformedRecordError{Field: FieldPayer, Reason: "payer is required"}
	}
	if r.Timestamp.IsZero() {
		return &MalformedRecordError{Field: FieldTimestamp, Reason: "timestamp is required"}
	}
	if !rewards.InPointsRange(r.Points) {
		return &MalformedRecordError{Field: FieldPoints, Value: fmt.Sprint(r.Points), Reason: "points out of range"}
	}
	return nil
}

// =============================================================================
// FIELD PARSERS
// =============================================================================

// Field names as they appear in feed headers and JSON keys.
const (
	FieldPayer     = "payer"
	FieldPoints    = "points"
	FieldTimestamp = "timestamp"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05Z0700",
}

// ParseTimestamp accepts RFC 3339 and the legacy zone suffixes.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

var (
	maxPoints = decimal.NewFromInt(rewards.MaxPoints)
	minPoints = decimal.NewFromInt(rewards.MinPoints)
)

// ParsePoints parses a whole-number point value in the 32-bit range
// partner feeds use (rewards.MinPoints to rewards.MaxPoints).
func ParsePoints(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("points must be a whole number: %s", d)
	}
	if d.GreaterThan(maxPoints) || d.LessThan(minPoints) {
		return 0, fmt.Errorf("points out of range: %s", d)
	}
	return d.IntPart(), nil
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
