/*
handlers.go - HTTP API handlers for the points engine

PURPOSE:
  Exposes spends, stored feeds and balances over REST. Handles HTTP
  request/response and JSON serialization, and delegates to the service.

ENDPOINTS:
  Spend:
    POST   /api/spend                          Spend against inline transactions

  Customers:
    GET    /api/customers                      List customers with records
    POST   /api/customers/{id}/transactions    Append feed records
    GET    /api/customers/{id}/transactions    Stored records in arrival order
    GET    /api/customers/{id}/balance         Per-payer totals
    POST   /api/customers/{id}/spend           Spend against stored records
    DELETE /api/customers/{id}                 Drop a customer's records

  Ops:
    GET    /health                             Liveness + store ping
    GET    /metrics                            Prometheus (see server.go)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body or record, negative amount
  - 404: Unknown customer
  - 422: Not enough points for the spend
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/points-engine/rewards"
	"github.com/warp/points-engine/service"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error codes carried in ErrorResponse.Code.
const (
	CodeBadRequest   = "bad_request"
	CodeNotFound     = "not_found"
	CodeInsufficient = "insufficient_points"
	CodeInternal     = "internal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Service *service.Service
	Logger  *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness. Stores that implement Pinger are checked.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Service.Store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.Logger.Warn("store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SPEND ENDPOINTS
// =============================================================================

// Spend handles POST /api/spend. The transactions in the body are the whole
// ledger; nothing is stored.
func (h *Handler) Spend(w http.ResponseWriter, r *http.Request) {
	var req SpendRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Points == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "points is required", nil)
		return
	}

	records, err := source.DecodeRecords(req.Transactions)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	result, err := h.Service.SpendRecords(r.Context(), records, *req.Points)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpendResponse(result))
}

// SpendCustomer handles POST /api/customers/{id}/spend.
func (h *Handler) SpendCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CustomerSpendRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Points == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "points is required", nil)
		return
	}

	result, err := h.Service.Spend(r.Context(), id, *req.Points)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpendResponse(result))
}

// =============================================================================
// CUSTOMER ENDPOINTS
// =============================================================================

// ListCustomers returns customer IDs with stored records.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Service.Customers(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CustomersResponse{Customers: ids})
}

// AppendTransactions stores feed records for a customer.
func (h *Handler) AppendTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RecordsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "transactions is required", nil)
		return
	}

	records, err := source.DecodeRecords(req.Transactions)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	stored, err := h.Service.Record(r.Context(), id, records)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordsResponse{CustomerID: id, Records: toRecordDTOs(stored)})
}

// GetTransactions returns the customer's stored records.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stored, err := h.Service.Transactions(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordsResponse{CustomerID: id, Records: toRecordDTOs(stored)})
}

// GetBalance returns the flat per-payer totals.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	totals, err := h.Service.Balance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// ResetCustomer drops every record of the customer.
func (h *Handler) ResetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Reset(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// writeDomainError maps service and ledger errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var short *rewards.InsufficientPointsError
	switch {
	case errors.As(err, &short):
		writeError(w, http.StatusUnprocessableEntity, CodeInsufficient, "insufficient points", map[string]int64{
			"requested": short.Requested,
			"available": short.Spent,
			"shortfall": short.Shortfall,
		})
	case errors.Is(err, store.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "customer not found", nil)
	case errors.Is(err, source.ErrMalformedRecord),
		errors.Is(err, store.ErrInvalidCustomer),
		rewards.IsClientError(err):
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
	default:
		h.Logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := ErrorResponse{Error: message, Code: code}
	if err, ok := details.(error); ok {
		resp.Details = err.Error()
	} else if details != nil {
		resp.Details = details
	}
	writeJSON(w, status, resp)
}
