/*
errors.go - Error types for the ledger and the spend engine

PURPOSE:
  Every failure the core can produce is a distinct, inspectable condition.
  Callers branch with errors.Is / errors.As; the core never prints or logs.

ERROR CATEGORIES:
  1. Ledger errors - empty ledger, missing transaction, aggregation misuse
  2. Spend errors  - insufficient points, negative amount

USAGE:
  totals, err := engine.Spend(l, 5000)
  var short *rewards.InsufficientPointsError
  if errors.As(err, &short) {
      fmt.Printf("missing %d points\n", short.Shortfall)
  }

SEE ALSO:
  - source/errors.go: MalformedRecord, raised before the core is reached
*/
package rewards

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyLedger is returned by OldestTransaction when no transactions remain.
	ErrEmptyLedger = errors.New("ledger has no transactions")

	// ErrInsufficientPoints is returned when the ledger runs out before the
	// requested amount is spent.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrTransactionNotFound is returned when removal finds no exact match.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyAggregated is returned on a second Aggregate call, or when
	// adding transactions to an aggregated ledger.
	ErrAlreadyAggregated = errors.New("ledger already aggregated")

	// ErrNotAggregated is returned when spending against a ledger whose
	// totals were never computed.
	ErrNotAggregated = errors.New("ledger not aggregated")

	// ErrNegativeAmount is returned for a spend request below zero.
	ErrNegativeAmount = errors.New("spend amount must not be negative")

	// ErrInvalidTransaction is returned for a transaction without a payer.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrPointsOutOfRange is returned for a transaction or spend amount
	// outside [MinPoints, MaxPoints].
	ErrPointsOutOfRange = errors.New("points out of range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientPointsError reports how far a spend got before the ledger ran dry.
type InsufficientPointsError struct {
	Requested int64
	Spent     int64
	Shortfall int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: requested %d, spent %d, shortfall %d",
		e.Requested, e.Spent, e.Shortfall)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

// TransactionNotFoundError names the triple that had no match.
type TransactionNotFoundError struct {
	Payer     string
	Points    int64
	Timestamp time.Time
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction not found: %s %+d @ %s",
		e.Payer, e.Points, e.Timestamp.UTC().Format(time.RFC3339))
}

func (e *TransactionNotFoundError) Unwrap() error {
	return ErrTransactionNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is caused by the request itself
// rather than by a broken ledger.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidTransaction) ||
		errors.Is(err, ErrPointsOutOfRange)
}
