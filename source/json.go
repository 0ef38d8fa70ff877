package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// JSON FEED
// =============================================================================

// WireRecord is the JSON shape of a feed row. Fields stay raw so each can be
// validated with a precise error.
type WireRecord struct {
	Payer     string          `json:"payer"`
	Points    json.RawMessage `json:"points"`
	Timestamp string          `json:"timestamp"`
}

// ParseJSON reads an array of {"payer","points","timestamp"} objects.
// Points may be a JSON number or a numeric string.
func ParseJSON(r io.Reader) ([]Record, error) {
	var rows []WireRecord
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, &MalformedRecordError{Reason: fmt.Sprintf("invalid json: %v", err)}
	}
	return DecodeRecords(rows)
}

// DecodeRecords validates already-decoded rows. The API reuses it for
// request bodies.
func DecodeRecords(rows []WireRecord) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := row.record(i + 1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (w WireRecord) record(line int) (Record, error) {
	payer := strings.TrimSpace(w.Payer)
	if payer == "" {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldPayer, Reason: "payer is required"}
	}

	raw := strings.TrimSpace(string(w.Points))
	if raw == "" || raw == "null" {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldPoints, Reason: "missing value"}
	}
	points, err := ParsePoints(unquote(raw))
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldPoints, Value: raw, Reason: err.Error()}
	}

	if strings.TrimSpace(w.Timestamp) == "" {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldTimestamp, Reason: "missing value"}
	}
	timestamp, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldTimestamp, Value: w.Timestamp, Reason: "unrecognised timestamp"}
	}

	return Record{Payer: payer, Points: points, Timestamp: timestamp}, nil
}
