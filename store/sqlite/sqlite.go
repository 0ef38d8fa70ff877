/*
Package sqlite provides a SQLite-backed store.RecordStore.

PURPOSE:
  Keeps every customer's partner feed rows on disk so ledgers can be rebuilt
  on each request. Only records are stored; ledger state after a spend is
  never persisted.

KEY TABLES:
  transaction_records: one row per feed record
    - customer_id + seq is unique and defines arrival order
    - points stored as INTEGER, timestamp as RFC 3339 text (UTC)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection so that
  ":memory:" databases are shared by every query.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging).

USAGE:
  s, err := sqlite.New("./data/points.db")
  if err != nil {
      log.Fatal(err)
  }
  defer s.Close()

SEE ALSO:
  - store/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store"
)

// Store implements store.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.RecordStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transaction_records (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		payer TEXT NOT NULL,
		points INTEGER NOT NULL,
		occurred_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Arrival order within a customer (hot path for Load)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_customer_seq
		ON transaction_records(customer_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (store.RecordStore interface)
// =============================================================================

// Append stores records after the customer's existing ones in one
// database transaction.
func (s *Store) Append(ctx context.Context, customerID string, records ...source.Record) ([]store.StoredRecord, error) {
	if err := store.ValidateBatch(customerID, records); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	var seq int64
	err = sqlTx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM transaction_records WHERE customer_id = ?`,
		customerID,
	).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence: %w", err)
	}

	query := `
		INSERT INTO transaction_records
		(id, customer_id, seq, payer, points, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	created := time.Now().UTC().Truncate(time.Second)
	out := make([]store.StoredRecord, 0, len(records))
	for _, r := range records {
		seq++
		rec := store.StoredRecord{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			Seq:        seq,
			Record:     r,
			CreatedAt:  created,
		}
		_, err := sqlTx.ExecContext(ctx, query,
			rec.ID,
			rec.CustomerID,
			rec.Seq,
			r.Payer,
			r.Points,
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			created.Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to append record: %w", err)
		}
		out = append(out, rec)
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit records: %w", err)
	}
	return out, nil
}

// Load returns the customer's records ordered by arrival.
func (s *Store) Load(ctx context.Context, customerID string) ([]store.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, seq, payer, points, occurred_at, created_at
		FROM transaction_records
		WHERE customer_id = ?
		ORDER BY seq ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []store.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, store.ErrCustomerNotFound
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (store.StoredRecord, error) {
	var (
		rec        store.StoredRecord
		occurredAt string
		createdAt  string
	)

	err := rows.Scan(
		&rec.ID, &rec.CustomerID, &rec.Seq,
		&rec.Payer, &rec.Points, &occurredAt, &createdAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.Timestamp, err = time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		return rec, fmt.Errorf("record %s: bad timestamp %q: %w", rec.ID, occurredAt, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rec, nil
}

// Customers lists customer IDs with at least one record.
func (s *Store) Customers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT customer_id FROM transaction_records ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Reset deletes every record of the customer.
func (s *Store) Reset(ctx context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transaction_records WHERE customer_id = ?`, customerID)
	if err != nil {
		return fmt.Errorf("failed to reset customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrCustomerNotFound
	}
	return nil
}
