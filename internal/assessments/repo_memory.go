package assessments

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps history in process memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Record)}
}

// Create stores the record.
func (r *MemoryRepo) Create(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[record.ID] = record
	return nil
}

// GetByID returns a record by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// List returns records newest first with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	records := make([]Record, 0, len(r.byID))
	for _, rec := range r.byID {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	if offset >= len(records) {
		return []Record{}, nil
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end], nil
}
