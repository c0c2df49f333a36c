package repo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
)

// MemoryMessage is a row held by MemoryRepository.
type MemoryMessage struct {
	ID         int64
	Subject    *string
	URLSubject *string
}

// MemoryRepository is a simple in-memory implementation suitable for tests and dry experiments.
type MemoryRepository struct {
	mu          sync.RWMutex
	messages    map[int64]*MemoryMessage
	hasColumn   bool
	hasIndex    bool
	columnAdds  int
	updateBatch []int
	failUpdates error
}

// NewMemoryRepository constructs a MemoryRepository without the url_subject column.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{messages: make(map[int64]*MemoryMessage)}
}

// Insert seeds a message row.
func (r *MemoryRepository) Insert(id int64, subject *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[id] = &MemoryMessage{ID: id, Subject: subject}
}

// FailUpdates makes every later UpdateURLSubjects call return err.
func (r *MemoryRepository) FailUpdates(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failUpdates = err
}

// URLSubject returns the stored URL subject of id, if any.
func (r *MemoryRepository) URLSubject(id int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.messages[id]
	if !ok || m.URLSubject == nil {
		return "", false
	}
	return *m.URLSubject, true
}

// ColumnAdds reports how many times the url_subject column was created.
func (r *MemoryRepository) ColumnAdds() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.columnAdds
}

// HasIndex reports whether EnsureURLSubjectIndex ran.
func (r *MemoryRepository) HasIndex() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasIndex
}

// BatchSizes returns the size of every update chunk applied so far.
func (r *MemoryRepository) BatchSizes() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int(nil), r.updateBatch...)
}

func (r *MemoryRepository) HasURLSubjectColumn(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasColumn, nil
}

func (r *MemoryRepository) AddURLSubjectColumn(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasColumn {
		return errors.New("column url_subject already exists")
	}
	r.hasColumn = true
	r.columnAdds++
	return nil
}

func (r *MemoryRepository) EnsureURLSubjectIndex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasColumn {
		return errors.New("column url_subject does not exist")
	}
	r.hasIndex = true
	return nil
}

func (r *MemoryRepository) ScanSubjects(ctx context.Context, fn func(persistence.MessageSubject) error) error {
	r.mu.RLock()
	rows := make([]persistence.MessageSubject, 0, len(r.messages))
	for _, m := range r.messages {
		rows = append(rows, persistence.MessageSubject{MessageID: m.ID, Subject: m.Subject})
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].MessageID < rows[j].MessageID })

	for _, row := range rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// UpdateURLSubjects applies all updates or none.
func (r *MemoryRepository) UpdateURLSubjects(ctx context.Context, updates []persistence.URLSubjectUpdate, batchSize int) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = persistence.DefaultUpdateBatchSize
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failUpdates != nil {
		return 0, r.failUpdates
	}
	if !r.hasColumn {
		return 0, errors.New("column url_subject does not exist")
	}
	for _, u := range updates {
		if _, ok := r.messages[u.MessageID]; !ok {
			return 0, errors.New("message not found")
		}
	}

	batches := 0
	for start := 0; start < len(updates); start += batchSize {
		end := min(start+batchSize, len(updates))
		for _, u := range updates[start:end] {
			value := u.URLSubject
			r.messages[u.MessageID].URLSubject = &value
		}
		r.updateBatch = append(r.updateBatch, end-start)
		batches++
	}
	return batches, nil
}

func (r *MemoryRepository) DuplicateURLSubjects(ctx context.Context) ([]persistence.DuplicateURLSubject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, m := range r.messages {
		if m.URLSubject != nil {
			counts[*m.URLSubject]++
		}
	}

	var out []persistence.DuplicateURLSubject
	for slug, n := range counts {
		if n > 1 {
			out = append(out, persistence.DuplicateURLSubject{URLSubject: slug, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URLSubject < out[j].URLSubject })
	return out, nil
}

func (r *MemoryRepository) CountMissingURLSubjects(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	missing := 0
	for _, m := range r.messages {
		if m.URLSubject == nil {
			missing++
		}
	}
	return missing, nil
}
