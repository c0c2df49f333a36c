package steps

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/repo"
	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/service"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/upgrade"
)

func strPtr(s string) *string { return &s }

// TestMessageBoardUpgradeSQLite runs the full upgrade against a file-backed SQLite database.
func TestMessageBoardUpgradeSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := persistence.OpenSQL(ctx, persistence.SQLConfig{
		Driver: "sqlite3",
		DSN:    "file:" + filepath.Join(t.TempDir(), "mb.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.BootstrapMessageBoardsSQL(ctx, db))

	store, err := persistence.NewSQLMessageStore(ctx, db)
	require.NoError(t, err)
	require.NoError(t, store.InsertMessage(ctx, 1, strPtr("Foo")))
	require.NoError(t, store.InsertMessage(ctx, 2, strPtr("foo")))
	require.NoError(t, store.InsertMessage(ctx, 3, strPtr("12345")))
	require.NoError(t, store.InsertMessage(ctx, 4, nil))

	releases, err := persistence.NewSQLReleaseStore(ctx, db)
	require.NoError(t, err)

	svc := service.New(repo.NewSQLRepository(store))
	urlSubject := NewURLSubjectStep(svc, 2)
	runner, err := upgrade.NewRunner(Component, releases, All(svc, urlSubject), nil)
	require.NoError(t, err)

	res, err := runner.Run(ctx, upgrade.RunOptions{})
	require.NoError(t, err)
	require.Equal(t, "3.1.1", res.To.String())
	require.Len(t, res.Applied, 2)

	report, ok := urlSubject.LastReport()
	require.True(t, ok)
	require.True(t, report.ColumnCreated)
	require.Equal(t, 4, report.Rows)
	require.Equal(t, 2, report.Batches)

	for id, expect := range map[int64]string{1: "foo", 2: "foo-1", 3: "3", 4: "4"} {
		got, err := store.URLSubject(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, expect, *got)
	}

	// Re-running with the column present succeeds and does not add it again.
	res, err = runner.Run(ctx, upgrade.RunOptions{Force: true})
	require.NoError(t, err)
	require.Len(t, res.Applied, 2)
	report, _ = urlSubject.LastReport()
	require.False(t, report.ColumnCreated)

	verify, err := svc.Verify(ctx)
	require.NoError(t, err)
	require.True(t, verify.OK())
}

func TestAllOrder(t *testing.T) {
	t.Parallel()

	svc := service.New(repo.NewMemoryRepository())
	steps := All(svc, NewURLSubjectStep(svc, 0))
	require.Len(t, steps, 2)
	require.Equal(t, "3.1.0", steps[0].Version().String())
	require.Equal(t, "3.1.1", steps[1].Version().String())

	_, ok := NewURLSubjectStep(svc, 0).LastReport()
	require.False(t, ok)
}
