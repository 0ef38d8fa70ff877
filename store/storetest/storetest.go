// Package storetest holds behaviour tests every store.RecordStore must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store"
)

func rec(payer string, points int64, hour int) source.Record {
	return source.Record{
		Payer:     payer,
		Points:    points,
		Timestamp: time.Date(2020, time.October, 31, hour, 0, 0, 0, time.UTC),
	}
}

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.RecordStore) {
	t.Run("AppendThenLoad_KeepsArrivalOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Append(ctx, "cust-1", rec("DANNON", 300, 10), rec("UNILEVER", 200, 9))
		require.NoError(t, err)
		stored, err := s.Append(ctx, "cust-1", rec("DANNON", -200, 8))
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, int64(3), stored[0].Seq)
		assert.NotEmpty(t, stored[0].ID)

		loaded, err := s.Load(ctx, "cust-1")
		require.NoError(t, err)
		require.Len(t, loaded, 3)

		records := store.Records(loaded)
		assert.Equal(t, "DANNON", records[0].Payer)
		assert.Equal(t, "UNILEVER", records[1].Payer)
		assert.Equal(t, int64(-200), records[2].Points)
		assert.True(t, records[2].Timestamp.Equal(rec("", 0, 8).Timestamp))
		for i, l := range loaded {
			assert.Equal(t, int64(i+1), l.Seq)
			assert.Equal(t, "cust-1", l.CustomerID)
		}
	})

	t.Run("CustomersAreIsolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Append(ctx, "b", rec("X", 1, 1))
		require.NoError(t, err)
		_, err = s.Append(ctx, "a", rec("Y", 2, 2))
		require.NoError(t, err)

		ids, err := s.Customers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)

		loaded, err := s.Load(ctx, "a")
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "Y", loaded[0].Payer)
		assert.Equal(t, int64(1), loaded[0].Seq)
	})

	t.Run("UnknownCustomer", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Load(ctx, "ghost")
		assert.ErrorIs(t, err, store.ErrCustomerNotFound)
		assert.ErrorIs(t, s.Reset(ctx, "ghost"), store.ErrCustomerNotFound)

		ids, err := s.Customers(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("InvalidBatch_WritesNothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Append(ctx, "cust", rec("A", 1, 1), source.Record{Points: 5})
		assert.ErrorIs(t, err, source.ErrMalformedRecord)

		_, err = s.Load(ctx, "cust")
		assert.ErrorIs(t, err, store.ErrCustomerNotFound)

		_, err = s.Append(ctx, "", rec("A", 1, 1))
		assert.ErrorIs(t, err, store.ErrInvalidCustomer)
	})

	t.Run("Reset", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Append(ctx, "cust", rec("A", 1, 1), rec("B", 2, 2))
		require.NoError(t, err)
		require.NoError(t, s.Reset(ctx, "cust"))

		_, err = s.Load(ctx, "cust")
		assert.ErrorIs(t, err, store.ErrCustomerNotFound)

		stored, err := s.Append(ctx, "cust", rec("C", 3, 3))
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored[0].Seq, "sequence restarts after reset")
	})
}
