package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store"
	"github.com/warp/points-engine/store/sqlite"
	"github.com/warp/points-engine/store/storetest"
)

func newTestStore(t *testing.T) *sqlite.Store {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.RecordStore {
		return newTestStore(t)
	})
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	// GIVEN: Records written to a file database
	// WHEN: Reopening the file
	// THEN: Records come back in order with their timestamps intact

	path := filepath.Join(t.TempDir(), "points.db")
	ctx := context.Background()
	ts := time.Date(2020, time.November, 2, 14, 0, 0, 0, time.FixedZone("EST", -5*60*60))

	s, err := sqlite.New(path)
	require.NoError(t, err)
	_, err = s.Append(ctx, "cust", source.Record{Payer: "DANNON", Points: 1000, Timestamp: ts})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "cust")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "DANNON", loaded[0].Payer)
	assert.True(t, loaded[0].Timestamp.Equal(ts))
	assert.NoError(t, reopened.Ping(ctx))
}
