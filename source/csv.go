package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// CSV FEED
// =============================================================================

// ParseCSV reads a header row followed by one record per line.
// Column order comes from the header; extra columns are ignored.
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, csvError(err)
	}

	cols, err := columns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRow(row, cols, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

type columnIndex struct {
	payer, points, timestamp int
}

func columns(header []string) (columnIndex, error) {
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(unquote(name))] = i
	}

	var cols columnIndex
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{FieldPayer, &cols.payer},
		{FieldPoints, &cols.points},
		{FieldTimestamp, &cols.timestamp},
	} {
		i, ok := idx[c.name]
		if !ok {
			return cols, &MalformedRecordError{Line: 1, Field: c.name, Reason: "missing column in header"}
		}
		*c.dst = i
	}
	return cols, nil
}

func parseRow(row []string, cols columnIndex, line int) (Record, error) {
	get := func(i int) (string, bool) {
		if i >= len(row) {
			return "", false
		}
		return unquote(row[i]), true
	}

	payer, ok := get(cols.payer)
	if !ok || payer == "" {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldPayer, Reason: "payer is required"}
	}

	rawPoints, ok := get(cols.points)
	if !ok {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldPoints, Reason: "missing value"}
	}
	points, err := ParsePoints(rawPoints)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldPoints, Value: rawPoints, Reason: err.Error()}
	}

	rawTS, ok := get(cols.timestamp)
	if !ok {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldTimestamp, Reason: "missing value"}
	}
	timestamp, err := ParseTimestamp(rawTS)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Field: FieldTimestamp, Value: rawTS, Reason: "unrecognised timestamp"}
	}

	return Record{Payer: payer, Points: points, Timestamp: timestamp}, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &MalformedRecordError{Line: pe.Line, Reason: pe.Err.Error()}
	}
	return fmt.Errorf("read csv: %w", err)
}

// =============================================================================
// FILE DISPATCH
// =============================================================================

// ReadFile parses a feed file, choosing the format from its extension.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".json":
		return ParseJSON(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}
