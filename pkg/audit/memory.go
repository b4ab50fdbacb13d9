package audit

import (
	"context"
	"sync"

	"clinical-assist-be/internal/entity"
)

// MemoryRecorder keeps the chain in memory. Test code and local tooling only;
// it implements the same chaining rules as the database recorder.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []*entity.AuditEntry

	// FailWith, when set, makes every Record call fail without appending.
	FailWith error
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(ctx context.Context, entry *entity.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}

	prev := genesisHash
	if n := len(r.entries); n > 0 {
		prev = r.entries[n-1].EntryHash
	}
	entry.PrevHash = prev
	entry.EntryHash = ComputeEntryHash(prev, entry)

	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

// Entries returns a snapshot of everything recorded so far, in order.
func (r *MemoryRecorder) Entries() []*entity.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
