package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func openTestSQLite(t *testing.T) *SQLDB {
	t.Helper()

	ctx := context.Background()
	db, err := OpenSQL(ctx, SQLConfig{
		Driver: "sqlite3",
		DSN:    "file:" + filepath.Join(t.TempDir(), "mb.db") + "?_foreign_keys=on",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, BootstrapMessageBoardsSQL(ctx, db))
	return db
}

func TestDialectForDriver(t *testing.T) {
	t.Parallel()

	d, err := DialectForDriver("SQLite")
	require.NoError(t, err)
	require.Equal(t, DialectSQLite, d)

	d, err = DialectForDriver("postgres")
	require.NoError(t, err)
	require.Equal(t, DialectPostgres, d)

	_, err = DialectForDriver("mysql")
	require.Error(t, err)
}

func TestDialectRebind(t *testing.T) {
	t.Parallel()

	query := "UPDATE t SET a = ? WHERE id = ?"
	require.Equal(t, query, DialectSQLite.Rebind(query))
	require.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", DialectPostgres.Rebind(query))
}

func TestOpenSQLValidation(t *testing.T) {
	t.Parallel()

	_, err := OpenSQL(context.Background(), SQLConfig{Driver: "sqlite3"})
	require.Error(t, err)

	_, err = OpenSQL(context.Background(), SQLConfig{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
}

func TestSQLMessageStoreSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestSQLite(t)

	store, err := NewSQLMessageStore(ctx, db)
	require.NoError(t, err)

	has, err := store.HasColumn(ctx, URLSubjectColumn)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, store.AddColumn(ctx, URLSubjectColumn, URLSubjectColumnType))
	has, err = store.HasColumn(ctx, URLSubjectColumn)
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, store.CreateIndex(ctx, URLSubjectIndex, URLSubjectColumn))
	require.NoError(t, store.CreateIndex(ctx, URLSubjectIndex, URLSubjectColumn))

	require.NoError(t, store.InsertMessage(ctx, 3, strPtr("third")))
	require.NoError(t, store.InsertMessage(ctx, 1, strPtr("first")))
	require.NoError(t, store.InsertMessage(ctx, 2, nil))

	var seen []MessageSubject
	require.NoError(t, store.ScanSubjects(ctx, func(row MessageSubject) error {
		seen = append(seen, row)
		return nil
	}))
	require.Len(t, seen, 3)
	require.Equal(t, []int64{1, 2, 3}, []int64{seen[0].MessageID, seen[1].MessageID, seen[2].MessageID})
	require.Equal(t, "first", *seen[0].Subject)
	require.Nil(t, seen[1].Subject)

	missing, err := store.CountMissingURLSubjects(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, missing)

	batches, err := store.UpdateURLSubjects(ctx, []URLSubjectUpdate{
		{MessageID: 1, URLSubject: "dup"},
		{MessageID: 2, URLSubject: "dup"},
		{MessageID: 3, URLSubject: "third"},
	}, 2)
	require.NoError(t, err)
	require.Equal(t, 2, batches)

	got, err := store.URLSubject(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "third", *got)

	_, err = store.URLSubject(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)

	dups, err := store.DuplicateURLSubjects(ctx)
	require.NoError(t, err)
	require.Equal(t, []DuplicateURLSubject{{URLSubject: "dup", Count: 2}}, dups)

	missing, err = store.CountMissingURLSubjects(ctx)
	require.NoError(t, err)
	require.Zero(t, missing)
}

func TestSQLMessageStoreUpdateRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestSQLite(t)

	store, err := NewSQLMessageStore(ctx, db)
	require.NoError(t, err)
	require.NoError(t, store.InsertMessage(ctx, 1, strPtr("first")))

	// url_subject was never added, so the prepared update fails and nothing commits.
	_, err = store.UpdateURLSubjects(ctx, []URLSubjectUpdate{{MessageID: 1, URLSubject: "first"}}, 10)
	require.Error(t, err)
}

func TestSQLReleaseStoreSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestSQLite(t)

	store, err := NewSQLReleaseStore(ctx, db)
	require.NoError(t, err)

	_, err = store.Get(ctx, "message-boards")
	require.ErrorIs(t, err, ErrNotFound)

	runID := uuid.New()
	require.NoError(t, store.Put(ctx, ReleaseRecord{
		Component:     "message-boards",
		SchemaVersion: MustParseSemanticVersion("3.1.0"),
		RunID:         runID,
	}))

	rec, err := store.Get(ctx, "message-boards")
	require.NoError(t, err)
	require.Equal(t, "3.1.0", rec.SchemaVersion.String())
	require.Equal(t, runID, rec.RunID)
	require.False(t, rec.AppliedAt.IsZero())

	require.NoError(t, store.Put(ctx, ReleaseRecord{
		Component:     "message-boards",
		SchemaVersion: MustParseSemanticVersion("3.1.1"),
		RunID:         uuid.New(),
	}))
	rec, err = store.Get(ctx, "message-boards")
	require.NoError(t, err)
	require.Equal(t, "3.1.1", rec.SchemaVersion.String())

	require.Error(t, store.Put(ctx, ReleaseRecord{Component: "message-boards"}))
}
