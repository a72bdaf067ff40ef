package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warden-io/warden-panel/models"
)

func TestPendingOperationStoreLifecycle(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)

	assert.False(t, store.IsProcessed("abc"), "unknown entry")

	registered := store.Register("abc", models.OperationOutcome{Resource: json.RawMessage(`"wardens/1"`)})
	assert.Equal(t, "operations/abc", registered.Key)
	assert.False(t, registered.Processed)
	assert.False(t, store.IsProcessed("abc"), "registered entry")

	op, ok := store.MarkProcessed("abc", models.OperationOutcome{
		Name:    "warden_created",
		Success: true,
		Code:    "ok",
		Message: "done",
	})
	require.True(t, ok)
	assert.True(t, store.IsProcessed("abc"))
	assert.True(t, op.Processed)
	assert.True(t, op.Value.Completed)
	assert.Equal(t, "warden_created", op.Value.Name)
	assert.Equal(t, "abc", op.Value.RequestID)
	assert.JSONEq(t, `"wardens/1"`, string(op.Value.Resource), "initial resource is kept")

	select {
	case <-store.Done("abc"):
		t.Fatal("done channel should stay open until settled")
	default:
	}

	store.Settle("abc")
	store.Settle("abc")

	select {
	case <-store.Done("abc"):
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestPendingOperationStoreMarkProcessedUnknownIsNoop(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)

	_, ok := store.MarkProcessed("missing", models.OperationOutcome{Name: "x"})

	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.Nil(t, store.Done("missing"))
}

func TestPendingOperationStoreSettleRequiresProcessed(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)
	store.Register("abc", models.OperationOutcome{})

	store.Settle("abc")
	store.Settle("missing")

	select {
	case <-store.Done("abc"):
		t.Fatal("unprocessed entry must not settle")
	default:
	}
}

func TestPendingOperationStoreSecondResolverLoses(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)
	store.Register("abc", models.OperationOutcome{})

	_, first := store.MarkProcessed("abc", models.OperationOutcome{Name: "warden_created", Success: true})
	op, second := store.MarkProcessed("abc", models.OperationOutcome{Name: "create_warden", Success: false})

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, "warden_created", op.Value.Name)
	assert.True(t, op.Value.Success)
}

func TestPendingOperationStoreConcurrentResolversHaveOneWinner(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)
	store.Register("race", models.OperationOutcome{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.MarkProcessed("race", models.OperationOutcome{Name: "n"}); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestPendingOperationStoreRegisterKeepsExisting(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)
	store.Register("abc", models.OperationOutcome{Resource: json.RawMessage(`1`)})
	store.MarkProcessed("abc", models.OperationOutcome{Name: "n"})

	op := store.Register("abc", models.OperationOutcome{Resource: json.RawMessage(`2`)})

	assert.True(t, op.Processed)
	assert.Equal(t, 1, store.Len())
}

func TestPendingOperationStoreSweep(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }

	store.Register("processed", models.OperationOutcome{})
	store.Register("waiting", models.OperationOutcome{})
	store.MarkProcessed("processed", models.OperationOutcome{Name: "n"})

	assert.Equal(t, 0, store.Sweep(start.Add(30*time.Second)))
	assert.Equal(t, 1, store.Sweep(start.Add(time.Minute)))

	_, ok := store.Get("processed")
	assert.False(t, ok)
	_, ok = store.Get("waiting")
	assert.True(t, ok, "unprocessed entries are never swept")
}

func TestPendingOperationStoreSweepDisabled(t *testing.T) {
	store := NewPendingOperationStore(0)
	store.Register("a", models.OperationOutcome{})
	store.MarkProcessed("a", models.OperationOutcome{})

	assert.Equal(t, 0, store.Sweep(time.Now().Add(time.Hour)))
	assert.Equal(t, 1, store.Len())
}

func TestPendingOperationStoreJanitor(t *testing.T) {
	store := NewPendingOperationStore(time.Nanosecond)
	store.Register("a", models.OperationOutcome{})
	store.MarkProcessed("a", models.OperationOutcome{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.StartJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestPendingOperationStoreRemove(t *testing.T) {
	store := NewPendingOperationStore(time.Minute)
	store.Register("a", models.OperationOutcome{})

	store.Remove("a")
	store.Remove("a")

	assert.Equal(t, 0, store.Len())
	assert.False(t, store.IsProcessed("a"))
}
