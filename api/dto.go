/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, keeping the ledger
  types out of the wire contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Spend:
    SpendRequest, CustomerSpendRequest, SpendResponse, DebitDTO

  Records:
    RecordsRequest, RecordsResponse, RecordDTO

VALIDATION:
  Record rows are validated by source.DecodeRecords, the same code that
  parses JSON feed files.

SEE ALSO:
  - handlers.go: Uses these types
  - source/json.go: WireRecord
*/
package api

import (
	"time"

	"github.com/warp/points-engine/rewards"
	"github.com/warp/points-engine/service"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SpendRequest spends against transactions carried in the body.
type SpendRequest struct {
	Transactions []source.WireRecord `json:"transactions"`
	Points       *int64              `json:"points"`
}

// CustomerSpendRequest spends against a stored customer.
type CustomerSpendRequest struct {
	Points *int64 `json:"points"`
}

// RecordsRequest appends transactions to a customer.
type RecordsRequest struct {
	Transactions []source.WireRecord `json:"transactions"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SpendResponse is the outcome of a spend.
// Totals is the flat {"payer": points} object in first-appearance order.
type SpendResponse struct {
	SpendID    string         `json:"spend_id"`
	CustomerID string         `json:"customer_id,omitempty"`
	Points     int64          `json:"points"`
	Totals     rewards.Totals `json:"totals"`
	Deltas     rewards.Totals `json:"deltas"`
	Debits     []DebitDTO     `json:"debits"`
}

// DebitDTO is one transaction touched by a spend.
type DebitDTO struct {
	Payer     string    `json:"payer"`
	Points    int64     `json:"points"`
	Timestamp time.Time `json:"timestamp"`
	Exhausted bool      `json:"exhausted"`
}

// RecordDTO is a stored transaction record.
type RecordDTO struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Payer     string    `json:"payer"`
	Points    int64     `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordsResponse lists stored records for a customer.
type RecordsResponse struct {
	CustomerID string      `json:"customer_id"`
	Records    []RecordDTO `json:"records"`
}

// CustomersResponse lists customers with records.
type CustomersResponse struct {
	Customers []string `json:"customers"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toSpendResponse(r service.SpendResult) SpendResponse {
	debits := make([]DebitDTO, len(r.Receipt.Debits))
	for i, d := range r.Receipt.Debits {
		debits[i] = DebitDTO{
			Payer:     d.Transaction.Payer,
			Points:    d.Points,
			Timestamp: d.Transaction.Timestamp,
			Exhausted: d.Exhausted,
		}
	}
	return SpendResponse{
		SpendID:    r.SpendID,
		CustomerID: r.CustomerID,
		Points:     r.Receipt.Requested,
		Totals:     r.Receipt.Totals,
		Deltas:     r.Receipt.Deltas,
		Debits:     debits,
	}
}

func toRecordDTOs(stored []store.StoredRecord) []RecordDTO {
	out := make([]RecordDTO, len(stored))
	for i, s := range stored {
		out[i] = RecordDTO{
			ID:        s.ID,
			Seq:       s.Seq,
			Payer:     s.Payer,
			Points:    s.Points,
			Timestamp: s.Timestamp,
		}
	}
	return out
}
