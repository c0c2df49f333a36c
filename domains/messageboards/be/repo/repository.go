package repo

import (
	"context"

	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
)

// Repository defines the persistence operations required by the message-boards upgrade service.
type Repository interface {
	HasURLSubjectColumn(ctx context.Context) (bool, error)
	AddURLSubjectColumn(ctx context.Context) error
	EnsureURLSubjectIndex(ctx context.Context) error
	ScanSubjects(ctx context.Context, fn func(persistence.MessageSubject) error) error
	UpdateURLSubjects(ctx context.Context, updates []persistence.URLSubjectUpdate, batchSize int) (int, error)
	DuplicateURLSubjects(ctx context.Context) ([]persistence.DuplicateURLSubject, error)
	CountMissingURLSubjects(ctx context.Context) (int, error)
}

// messageStore is the method set shared by persistence.MessageStore and persistence.SQLMessageStore.
type messageStore interface {
	HasColumn(ctx context.Context, column string) (bool, error)
	AddColumn(ctx context.Context, column, definition string) error
	CreateIndex(ctx context.Context, name, column string) error
	ScanSubjects(ctx context.Context, fn func(persistence.MessageSubject) error) error
	UpdateURLSubjects(ctx context.Context, updates []persistence.URLSubjectUpdate, batchSize int) (int, error)
	DuplicateURLSubjects(ctx context.Context) ([]persistence.DuplicateURLSubject, error)
	CountMissingURLSubjects(ctx context.Context) (int, error)
}

type storeRepository struct {
	store messageStore
}

// NewPostgresRepository constructs a repository backed by the pgx message store.
func NewPostgresRepository(store *persistence.MessageStore) Repository {
	if store == nil {
		panic("message store is required")
	}
	return &storeRepository{store: store}
}

// NewSQLRepository constructs a repository backed by the database/sql message store.
func NewSQLRepository(store *persistence.SQLMessageStore) Repository {
	if store == nil {
		panic("sql message store is required")
	}
	return &storeRepository{store: store}
}

func (r *storeRepository) HasURLSubjectColumn(ctx context.Context) (bool, error) {
	return r.store.HasColumn(ctx, persistence.URLSubjectColumn)
}

func (r *storeRepository) AddURLSubjectColumn(ctx context.Context) error {
	return r.store.AddColumn(ctx, persistence.URLSubjectColumn, persistence.URLSubjectColumnType)
}

func (r *storeRepository) EnsureURLSubjectIndex(ctx context.Context) error {
	return r.store.CreateIndex(ctx, persistence.URLSubjectIndex, persistence.URLSubjectColumn)
}

func (r *storeRepository) ScanSubjects(ctx context.Context, fn func(persistence.MessageSubject) error) error {
	return r.store.ScanSubjects(ctx, fn)
}

func (r *storeRepository) UpdateURLSubjects(ctx context.Context, updates []persistence.URLSubjectUpdate, batchSize int) (int, error) {
	return r.store.UpdateURLSubjects(ctx, updates, batchSize)
}

func (r *storeRepository) DuplicateURLSubjects(ctx context.Context) ([]persistence.DuplicateURLSubject, error) {
	return r.store.DuplicateURLSubjects(ctx)
}

func (r *storeRepository) CountMissingURLSubjects(ctx context.Context) (int, error) {
	return r.store.CountMissingURLSubjects(ctx)
}
