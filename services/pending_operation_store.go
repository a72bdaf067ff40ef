package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/models"
)

type pendingEntry struct {
	operation models.PendingOperation
	settled   bool
	done      chan struct{}
}

// PendingOperationStore correlates request ids with operations whose outcome
// may arrive either by push or by polling. Whichever path marks an entry
// processed first wins; later attempts see it as already processed. The
// winner calls Settle once the outcome has been published.
type PendingOperationStore struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewPendingOperationStore(ttl time.Duration) *PendingOperationStore {
	return &PendingOperationStore{
		entries: make(map[string]*pendingEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func PendingOperationKey(requestID string) string {
	return "operations/" + requestID
}

// Register inserts an unprocessed entry. Registering an existing request id
// keeps the existing entry.
func (s *PendingOperationStore) Register(requestID string, initial models.OperationOutcome) models.PendingOperation {
	key := PendingOperationKey(requestID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		return entry.operation
	}

	initial.RequestID = requestID
	initial.Completed = false
	entry := &pendingEntry{
		operation: models.PendingOperation{
			Key:       key,
			RequestID: requestID,
			CreatedAt: s.now(),
			Value:     initial,
		},
		done: make(chan struct{}),
	}
	s.entries[key] = entry
	return entry.operation
}

// MarkProcessed merges the updates into the entry and flags it processed.
// It returns false when the entry is unknown or was already processed, in
// which case nothing changes.
func (s *PendingOperationStore) MarkProcessed(requestID string, updates models.OperationOutcome) (models.PendingOperation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[PendingOperationKey(requestID)]
	if !ok {
		return models.PendingOperation{}, false
	}
	if entry.operation.Processed {
		return entry.operation, false
	}

	value := &entry.operation.Value
	value.Name = updates.Name
	value.Success = updates.Success
	value.Code = updates.Code
	value.Message = updates.Message
	if len(updates.Messages) > 0 {
		value.Messages = updates.Messages
	}
	if len(updates.Resource) > 0 {
		value.Resource = updates.Resource
	}
	value.Completed = true

	entry.operation.Processed = true
	entry.operation.ProcessedAt = s.now()

	return entry.operation, true
}

func (s *PendingOperationStore) IsProcessed(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[PendingOperationKey(requestID)]
	return ok && entry.operation.Processed
}

func (s *PendingOperationStore) Get(requestID string) (models.PendingOperation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[PendingOperationKey(requestID)]
	if !ok {
		return models.PendingOperation{}, false
	}
	return entry.operation, true
}

// Settle wakes everyone waiting on Done. It is a no-op for unknown or
// unprocessed entries and safe to call more than once.
func (s *PendingOperationStore) Settle(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[PendingOperationKey(requestID)]
	if !ok || !entry.operation.Processed || entry.settled {
		return
	}
	entry.settled = true
	close(entry.done)
}

// Done returns a channel closed once the entry is settled, or nil for an
// unknown request id.
func (s *PendingOperationStore) Done(requestID string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[PendingOperationKey(requestID)]
	if !ok {
		return nil
	}
	return entry.done
}

func (s *PendingOperationStore) Remove(requestID string) {
	s.mu.Lock()
	delete(s.entries, PendingOperationKey(requestID))
	s.mu.Unlock()
}

// Sweep evicts processed entries older than the store TTL and returns how
// many were removed.
func (s *PendingOperationStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.operation.Processed && now.Sub(entry.operation.ProcessedAt) >= s.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps the store every interval until ctx is cancelled.
func (s *PendingOperationStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := s.Sweep(now); removed > 0 {
					log.Debug().Int("removed", removed).Msg("evicted processed operations")
				}
			}
		}
	}()
}

func (s *PendingOperationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
