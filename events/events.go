/*
Package events defines what the service announces after a spend.

PURPOSE:
  Downstream systems (fulfilment, analytics) learn about completed spends
  from a SpendCompleted event. Publishing is best-effort: the spend result
  is returned to the caller whether or not the event goes out.

IMPLEMENTATIONS:
  - Nop: discards events (default when no broker is configured)
  - Recorder: keeps events in memory (tests)
  - events/kafka: segmentio/kafka-go writer

SEE ALSO:
  - service/service.go: Publishes after a successful spend
*/
package events

import (
	"context"
	"sync"
	"time"

	"github.com/warp/points-engine/rewards"
)

// TopicSpendCompleted is the default topic for SpendCompleted.
const TopicSpendCompleted = "points.spend.completed"

// SpendCompleted describes one successful spend.
type SpendCompleted struct {
	SpendID    string         `json:"spend_id"`
	CustomerID string         `json:"customer_id,omitempty"`
	Points     int64          `json:"points"`
	Deltas     rewards.Totals `json:"deltas"`
	Totals     rewards.Totals `json:"totals"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher sends events somewhere.
type Publisher interface {
	PublishSpend(ctx context.Context, event SpendCompleted) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishSpend(context.Context, SpendCompleted) error { return nil }
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []SpendCompleted
	// Err, when set, is returned from every PublishSpend call.
	Err error
}

func (r *Recorder) PublishSpend(_ context.Context, event SpendCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []SpendCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SpendCompleted, len(r.events))
	copy(out, r.events)
	return out
}
