package memory_test

import (
	"testing"

	"github.com/warp/points-engine/store"
	"github.com/warp/points-engine/store/memory"
	"github.com/warp/points-engine/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.RecordStore {
		return memory.New()
	})
}
