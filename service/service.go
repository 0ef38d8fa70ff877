/*
Package service wires record stores, the spend engine and event publishing.

PURPOSE:
  The rewards package works on one in-memory ledger. This layer loads a
  customer's records, builds the ledger, spends against a working copy,
  and reports the outcome (logs, metrics, events). It is what the HTTP API
  and the CLI call.

REQUEST FLOW (Spend):
  1. Load records for the customer (arrival order)
  2. rewards.Build -> aggregated ledger
  3. Spend against a working ledger rebuilt from the aggregation
     snapshot; it is discarded on failure, so callers see all-or-nothing
  4. Log + count the outcome, publish SpendCompleted on success

STATE:
  Spends are not written back. Every request starts from the stored
  records, so two Spend calls for the same customer are independent.

SEE ALSO:
  - rewards/spend.go: The algorithm
  - store/: Record sources
  - events/: SpendCompleted
*/
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/points-engine/events"
	"github.com/warp/points-engine/rewards"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store"
	"go.uber.org/zap"
)

// ErrCustomerNotFound is returned for a customer without stored records.
var ErrCustomerNotFound = store.ErrCustomerNotFound

// =============================================================================
// SERVICE
// =============================================================================

// Service is safe for concurrent use; each call builds its own ledger.
type Service struct {
	Store     store.RecordStore
	Engine    *rewards.SpendEngine
	Publisher events.Publisher
	Logger    *zap.Logger
	Metrics   *Metrics

	now   func() time.Time
	newID func() string
}

// Option customises a Service.
type Option func(*Service)

func WithEngine(e *rewards.SpendEngine) Option { return func(s *Service) { s.Engine = e } }
func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.Publisher = p } }
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.Logger = l } }
func WithMetrics(m *Metrics) Option { return func(s *Service) { s.Metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithIDGenerator(gen func() string) Option { return func(s *Service) { s.newID = gen } }

// New creates a service over st. Unset collaborators get no-op defaults.
func New(st store.RecordStore, opts ...Option) *Service {
	s := &Service{
		Store:     st,
		Engine:    rewards.NewSpendEngine(),
		Publisher: events.Nop{},
		Logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SpendResult is a completed spend as reported to callers.
type SpendResult struct {
	SpendID    string
	CustomerID string
	Receipt    rewards.Receipt
}

// =============================================================================
// RECORDS
// =============================================================================

// Record appends records for a customer.
func (s *Service) Record(ctx context.Context, customerID string, records []source.Record) ([]store.StoredRecord, error) {
	stored, err := s.Store.Append(ctx, customerID, records...)
	if err != nil {
		return nil, fmt.Errorf("record transactions: %w", err)
	}
	if s.Metrics != nil {
		s.Metrics.RecordsStored.Add(float64(len(stored)))
	}
	s.Logger.Info("records appended",
		zap.String("customer_id", customerID),
		zap.Int("count", len(stored)),
	)
	return stored, nil
}

// Customers lists customers with stored records.
func (s *Service) Customers(ctx context.Context) ([]string, error) {
	return s.Store.Customers(ctx)
}

// Reset drops a customer's records.
func (s *Service) Reset(ctx context.Context, customerID string) error {
	if err := s.Store.Reset(ctx, customerID); err != nil {
		return err
	}
	s.Logger.Info("customer reset", zap.String("customer_id", customerID))
	return nil
}

// Transactions returns the customer's stored records in arrival order.
func (s *Service) Transactions(ctx context.Context, customerID string) ([]store.StoredRecord, error) {
	return s.Store.Load(ctx, customerID)
}

// =============================================================================
// BALANCE + SPEND
// =============================================================================

// Balance returns the customer's per-payer totals before any spend.
func (s *Service) Balance(ctx context.Context, customerID string) (rewards.Totals, error) {
	l, err := s.ledger(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return l.Totals(), nil
}

// Spend spends points against the customer's stored records.
func (s *Service) Spend(ctx context.Context, customerID string, points int64) (SpendResult, error) {
	start := s.now()
	l, err := s.ledger(ctx, customerID)
	if err != nil {
		s.observe(start, 0, err)
		return SpendResult{}, err
	}
	return s.spend(ctx, customerID, l, points, start)
}

// SpendRecords spends points against records supplied by the caller,
// without touching the store.
func (s *Service) SpendRecords(ctx context.Context, records []source.Record, points int64) (SpendResult, error) {
	start := s.now()
	l, err := rewards.Build(source.ToTransactions(records))
	if err != nil {
		s.observe(start, 0, err)
		return SpendResult{}, err
	}
	return s.spend(ctx, "", l, points, start)
}

func (s *Service) ledger(ctx context.Context, customerID string) (*rewards.Ledger, error) {
	stored, err := s.Store.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	l, err := rewards.Build(source.ToTransactions(store.Records(stored)))
	if err != nil {
		return nil, fmt.Errorf("build ledger for %s: %w", customerID, err)
	}
	return l, nil
}

func (s *Service) spend(ctx context.Context, customerID string, l *rewards.Ledger, points int64, start time.Time) (SpendResult, error) {
	working, err := l.Snapshot().Ledger()
	if err != nil {
		s.observe(start, 0, err)
		return SpendResult{}, err
	}
	receipt, err := s.Engine.SpendWithReceipt(working, points)
	s.observe(start, points, err)

	log := s.Logger.With(
		zap.String("customer_id", customerID),
		zap.Int64("points", points),
		zap.Int("transactions", l.Len()),
	)
	if err != nil {
		var short *rewards.InsufficientPointsError
		if errors.As(err, &short) {
			log.Info("spend rejected", zap.Int64("shortfall", short.Shortfall))
		} else {
			log.Warn("spend failed", zap.Error(err))
		}
		return SpendResult{}, err
	}

	result := SpendResult{SpendID: s.newID(), CustomerID: customerID, Receipt: receipt}
	log.Info("spend completed",
		zap.String("spend_id", result.SpendID),
		zap.Int("debits", len(receipt.Debits)),
	)

	event := events.SpendCompleted{
		SpendID:    result.SpendID,
		CustomerID: customerID,
		Points:     points,
		Deltas:     receipt.Deltas,
		Totals:     receipt.Totals,
		OccurredAt: s.now(),
	}
	if err := s.Publisher.PublishSpend(ctx, event); err != nil {
		if s.Metrics != nil {
			s.Metrics.EventFailures.Inc()
		}
		log.Error("publish spend event", zap.String("spend_id", result.SpendID), zap.Error(err))
	}
	return result, nil
}

func (s *Service) observe(start time.Time, points int64, err error) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.SpendDuration.Observe(s.now().Sub(start).Seconds())
	s.Metrics.SpendsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		s.Metrics.PointsSpent.Add(float64(points))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, rewards.ErrInsufficientPoints):
		return OutcomeInsufficient
	case rewards.IsClientError(err), errors.Is(err, store.ErrCustomerNotFound):
		return OutcomeInvalid
	}
	return OutcomeError
}
