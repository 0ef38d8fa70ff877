package source_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/points-engine/rewards"
	"github.com/warp/points-engine/source"
)

const exerciseCSV = `"payer","points","timestamp"
"DANNON",1000,"2020-11-02T14:00:00Z"
"UNILEVER",200,"2020-10-31T11:00:00Z"
"DANNON",-200,"2020-10-31T15:00:00Z"
"MILLER COORS",10000,"2020-11-01T14:00:00Z"
"DANNON",300,"2020-10-31T10:00:00Z"
`

// =============================================================================
// CSV TESTS
// =============================================================================

func TestParseCSV_ExerciseFeed(t *testing.T) {
	records, err := source.ParseCSV(strings.NewReader(exerciseCSV))
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, "DANNON", records[0].Payer)
	assert.Equal(t, int64(1000), records[0].Points)
	assert.True(t, records[0].Timestamp.Equal(time.Date(2020, 11, 2, 14, 0, 0, 0, time.UTC)))

	assert.Equal(t, "MILLER COORS", records[3].Payer)
	assert.Equal(t, int64(-200), records[2].Points)
}

func TestParseCSV_HeaderOrderAndExtraColumns(t *testing.T) {
	feed := "timestamp,note,PAYER,points\r\n2020-11-02T14:00:00Z,hello,DANNON,5\r\n"

	records, err := source.ParseCSV(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "DANNON", records[0].Payer)
	assert.Equal(t, int64(5), records[0].Points)
	assert.True(t, records[0].Timestamp.Equal(time.Date(2020, 11, 2, 14, 0, 0, 0, time.UTC)))
}

func TestParseCSV_LegacyZoneFormats(t *testing.T) {
	feed := "payer,points,timestamp\nA,1,2020-11-02T14:00:00+02\nB,2,2020-11-02T14:00:00-0500\n"

	records, err := source.ParseCSV(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].Timestamp.Equal(time.Date(2020, 11, 2, 12, 0, 0, 0, time.UTC)))
	assert.True(t, records[1].Timestamp.Equal(time.Date(2020, 11, 2, 19, 0, 0, 0, time.UTC)))
}

func TestParseCSV_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		feed  string
		line  int
		field string
	}{
		{"bad points", "payer,points,timestamp\nA,ten,2020-11-02T14:00:00Z\n", 2, source.FieldPoints},
		{"fractional points", "payer,points,timestamp\nA,1,2020-11-02T14:00:00Z\nB,2.5,2020-11-02T14:00:00Z\n", 3, source.FieldPoints},
		{"overflow", "payer,points,timestamp\nA,9223372036854775808,2020-11-02T14:00:00Z\n", 2, source.FieldPoints},
		{"int64 min", "payer,points,timestamp\nA,-9223372036854775808,2020-11-02T14:00:00Z\nB,10,2020-11-02T15:00:00Z\n", 2, source.FieldPoints},
		{"above 32-bit", "payer,points,timestamp\nA,2147483648,2020-11-02T14:00:00Z\n", 2, source.FieldPoints},
		{"below 32-bit", "payer,points,timestamp\nA,-2147483649,2020-11-02T14:00:00Z\n", 2, source.FieldPoints},
		{"bad timestamp", "payer,points,timestamp\nA,1,yesterday\n", 2, source.FieldTimestamp},
		{"missing payer", "payer,points,timestamp\n,1,2020-11-02T14:00:00Z\n", 2, source.FieldPayer},
		{"short row", "payer,points,timestamp\nA,1\n", 2, source.FieldTimestamp},
		{"missing column", "payer,points\nA,1\n", 1, source.FieldTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.ParseCSV(strings.NewReader(tt.feed))
			require.Error(t, err)
			assert.ErrorIs(t, err, source.ErrMalformedRecord)

			var mr *source.MalformedRecordError
			require.ErrorAs(t, err, &mr)
			assert.Equal(t, tt.line, mr.Line)
			assert.Equal(t, tt.field, mr.Field)
		})
	}
}

func TestParsePoints_Bounds(t *testing.T) {
	// GIVEN: Values at and just past the 32-bit edges
	// WHEN: Parsing them
	// THEN: The edges are accepted, anything beyond is rejected

	for _, s := range []string{"2147483647", "-2147483648", "0"} {
		_, err := source.ParsePoints(s)
		assert.NoError(t, err, s)
	}
	for _, s := range []string{"2147483648", "-2147483649", "9223372036854775807", "-9223372036854775808"} {
		_, err := source.ParsePoints(s)
		assert.Error(t, err, s)
	}

	feed := "payer,points,timestamp\nA,2147483647,2020-11-02T14:00:00Z\nA,2147483647,2020-11-02T15:00:00Z\nB,-2147483648,2020-11-02T16:00:00Z\n"
	records, err := source.ParseCSV(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Equal(t, int64(rewards.MaxPoints), records[0].Points)
	assert.Equal(t, int64(rewards.MinPoints), records[2].Points)
}

func TestParseJSON_OutOfRangePoints(t *testing.T) {
	_, err := source.ParseJSON(strings.NewReader(`[{"payer":"A","points":9223372036854775807,"timestamp":"2020-11-02T14:00:00Z"}]`))
	var mr *source.MalformedRecordError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, 1, mr.Line)
	assert.Equal(t, source.FieldPoints, mr.Field)
}

func TestParseCSV_WholeNumberNotations(t *testing.T) {
	feed := "payer,points,timestamp\nA,1e3,2020-11-02T14:00:00Z\nB,25.00,2020-11-02T14:00:00Z\n"

	records, err := source.ParseCSV(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), records[0].Points)
	assert.Equal(t, int64(25), records[1].Points)
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := source.ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, source.ErrEmptyInput)

	records, err := source.ParseCSV(strings.NewReader("payer,points,timestamp\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

// =============================================================================
// JSON TESTS
// =============================================================================

func TestParseJSON(t *testing.T) {
	feed := `[
		{"payer": "DANNON", "points": 300, "timestamp": "2020-10-31T10:00:00Z"},
		{"payer": "UNILEVER", "points": "-20", "timestamp": "2020-10-31T11:00:00+0100"}
	]`

	records, err := source.ParseJSON(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(300), records[0].Points)
	assert.Equal(t, int64(-20), records[1].Points)
	assert.True(t, records[1].Timestamp.Equal(time.Date(2020, 10, 31, 10, 0, 0, 0, time.UTC)))
}

func TestParseJSON_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		feed  string
		field string
	}{
		{"not an array", `{"payer":"A"}`, ""},
		{"missing points", `[{"payer":"A","timestamp":"2020-10-31T10:00:00Z"}]`, source.FieldPoints},
		{"fractional", `[{"payer":"A","points":1.5,"timestamp":"2020-10-31T10:00:00Z"}]`, source.FieldPoints},
		{"missing timestamp", `[{"payer":"A","points":1}]`, source.FieldTimestamp},
		{"blank payer", `[{"payer":"  ","points":1,"timestamp":"2020-10-31T10:00:00Z"}]`, source.FieldPayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.ParseJSON(strings.NewReader(tt.feed))
			var mr *source.MalformedRecordError
			require.ErrorAs(t, err, &mr)
			assert.Equal(t, tt.field, mr.Field)
		})
	}
}

func TestParseJSON_Empty(t *testing.T) {
	_, err := source.ParseJSON(strings.NewReader(""))
	assert.ErrorIs(t, err, source.ErrEmptyInput)
}

// =============================================================================
// FILE + CONVERSION TESTS
// =============================================================================

func TestReadFile_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "feed.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(exerciseCSV), 0o600))
	records, err := source.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	jsonPath := filepath.Join(dir, "feed.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"payer":"A","points":1,"timestamp":"2020-10-31T10:00:00Z"}]`), 0o600))
	records, err = source.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	txtPath := filepath.Join(dir, "feed.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = source.ReadFile(txtPath)
	assert.ErrorIs(t, err, source.ErrUnsupportedFormat)

	_, err = source.ReadFile(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestToTransactions_PreservesOrder(t *testing.T) {
	records, err := source.ParseCSV(strings.NewReader(exerciseCSV))
	require.NoError(t, err)

	txs := source.ToTransactions(records)
	require.Len(t, txs, len(records))
	for i := range records {
		assert.Equal(t, records[i].Payer, txs[i].Payer)
		assert.Equal(t, records[i].Points, txs[i].Points)
	}
}

func TestRecord_Validate(t *testing.T) {
	assert.ErrorIs(t, source.Record{Points: 1, Timestamp: time.Now()}.Validate(), source.ErrMalformedRecord)
	assert.ErrorIs(t, source.Record{Payer: "A", Points: 1}.Validate(), source.ErrMalformedRecord)
	assert.NoError(t, source.Record{Payer: "A", Points: 1, Timestamp: time.Now()}.Validate())
	assert.ErrorIs(t, source.Record{Payer: "A", Points: rewards.MaxPoints + 1, Timestamp: time.Now()}.Validate(), source.ErrMalformedRecord)
}
