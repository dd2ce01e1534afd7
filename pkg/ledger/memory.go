package ledger

import (
	"context"
	"sync"
	"time"
)

// Memory keeps run records in process memory. Suitable for single-node
// deployments and tests.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]Record
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]Record)}
}

func (m *Memory) set(skribbleID string, mutate func(*Record)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.runs[skribbleID]
	if !ok {
		rec = Record{SkribbleID: skribbleID, StartedAt: time.Now().UTC()}
	}
	mutate(&rec)
	rec.UpdatedAt = time.Now().UTC()
	m.runs[skribbleID] = rec
}

// Begin implements Ledger.
func (m *Memory) Begin(_ context.Context, skribbleID string) error {
	m.set(skribbleID, func(r *Record) {
		r.Status = StatusProcessing
		r.StartedAt = time.Now().UTC()
		r.ErrorCode = ""
		r.Message = ""
		r.ObjectKey = ""
	})
	return nil
}

// Complete implements Ledger.
func (m *Memory) Complete(_ context.Context, skribbleID, objectKey string) error {
	m.set(skribbleID, func(r *Record) {
		r.Status = StatusSuccess
		r.ObjectKey = objectKey
	})
	return nil
}

// Fail implements Ledger.
func (m *Memory) Fail(_ context.Context, skribbleID, code, message string) error {
	m.set(skribbleID, func(r *Record) {
		r.Status = StatusError
		r.ErrorCode = code
		r.Message = message
	})
	return nil
}

// Get implements Ledger.
func (m *Memory) Get(_ context.Context, skribbleID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.runs[skribbleID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}
