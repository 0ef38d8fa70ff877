/*
Package store defines where customers' transaction records are kept.

PURPOSE:
  A RecordStore is the record source the service builds ledgers from. It
  holds each customer's feed rows in arrival order and nothing else: spend
  results are computed per request and never written back, so the stored
  records always describe what partners sent.

KEY INTERFACES:
  RecordStore: Append, Load (arrival order), Customers, Reset

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests and ephemeral servers
  - store/sqlite: SQLite (mattn/go-sqlite3)

ATOMIC BATCHES:
  Append validates the whole batch before writing. Either every record in
  the call is stored or none is.

SEE ALSO:
  - service/: Builds a rewards.Ledger from Load()
  - source/: Record type and validation
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/warp/points-engine/source"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCustomerNotFound is returned when a customer has no stored records.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInvalidCustomer is returned for an empty customer ID.
	ErrInvalidCustomer = errors.New("customer id is required")
)

// =============================================================================
// RECORD STORE
// =============================================================================

// StoredRecord is a feed row plus the bookkeeping the store assigns.
type StoredRecord struct {
	ID         string
	CustomerID string
	// Seq is the arrival position within the customer, starting at 1.
	Seq int64
	source.Record
	CreatedAt time.Time
}

// RecordStore persists customers' transaction records in arrival order.
type RecordStore interface {
	// Append stores records after any existing ones for the customer.
	Append(ctx context.Context, customerID string, records ...source.Record) ([]StoredRecord, error)

	// Load returns the customer's records in arrival order.
	// A customer with no records yields ErrCustomerNotFound.
	Load(ctx context.Context, customerID string) ([]StoredRecord, error)

	// Customers lists customer IDs that have records, sorted.
	Customers(ctx context.Context) ([]string, error)

	// Reset deletes every record of the customer.
	Reset(ctx context.Context, customerID string) error
}

// Records strips bookkeeping, keeping order.
func Records(stored []StoredRecord) []source.Record {
	out := make([]source.Record, len(stored))
	for i, s := range stored {
		out[i] = s.Record
	}
	return out
}

// ValidateBatch runs the checks every implementation applies before writing.
func ValidateBatch(customerID string, records []source.Record) error {
	if customerID == "" {
		return ErrInvalidCustomer
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
