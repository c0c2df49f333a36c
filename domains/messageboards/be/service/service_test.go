package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/repo"
)

func seededRepository() *repo.MemoryRepository {
	r := repo.NewMemoryRepository()
	r.Insert(1, strPtr("Foo"))
	r.Insert(2, strPtr("foo"))
	r.Insert(3, nil)
	r.Insert(4, strPtr("rss"))
	r.Insert(5, strPtr("  Hello World  "))
	r.Insert(6, strPtr("12345"))
	return r
}

func TestBackfillAssignsUniqueURLSubjects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := seededRepository()
	svc := New(r)

	report, err := svc.Backfill(ctx, Options{BatchSize: 4})
	require.NoError(t, err)
	require.True(t, report.ColumnCreated)
	require.Equal(t, 6, report.Rows)
	require.Equal(t, 1, report.Duplicates)
	require.Equal(t, 3, report.Fallbacks)
	require.Equal(t, 2, report.Batches)
	require.Equal(t, []int{4, 2}, r.BatchSizes())

	expect := map[int64]string{
		1: "foo",
		2: "foo-1",
		3: "3",
		4: "4",
		5: "hello-world",
		6: "6",
	}
	for id, slug := range expect {
		got, ok := r.URLSubject(id)
		require.True(t, ok, "message %d has no url subject", id)
		require.Equal(t, slug, got, "message %d", id)
	}

	res, err := svc.Verify(ctx)
	require.NoError(t, err)
	require.True(t, res.OK())
}

func TestBackfillIsRepeatable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := seededRepository()
	svc := New(r)

	_, err := svc.Backfill(ctx, Options{})
	require.NoError(t, err)

	report, err := svc.Backfill(ctx, Options{})
	require.NoError(t, err)
	require.False(t, report.ColumnCreated)
	require.Equal(t, 1, r.ColumnAdds())

	got, ok := r.URLSubject(2)
	require.True(t, ok)
	require.Equal(t, "foo-1", got)
}

func TestBackfillDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := seededRepository()
	svc := New(r)

	report, err := svc.Backfill(ctx, Options{DryRun: true})
	require.NoError(t, err)
	require.True(t, report.DryRun)
	require.True(t, report.ColumnMissing)
	require.False(t, report.ColumnCreated)
	require.Zero(t, report.Batches)
	require.Equal(t, 6, report.Rows)
	require.Len(t, report.Sample, 6)
	require.Equal(t, "foo-1", report.Sample[1].URLSubject)
	require.Zero(t, r.ColumnAdds())

	_, ok := r.URLSubject(1)
	require.False(t, ok)

	_, err = svc.Verify(ctx)
	require.ErrorIs(t, err, ErrColumnMissing)
}

func TestBackfillPropagatesWriteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := seededRepository()
	boom := errors.New("batch execution failed")
	r.FailUpdates(boom)

	_, err := New(r).Backfill(ctx, Options{})
	require.ErrorIs(t, err, boom)

	_, ok := r.URLSubject(1)
	require.False(t, ok)
}

func TestBackfillReportsCollisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := repo.NewMemoryRepository()
	r.Insert(1, strPtr("foo"))
	r.Insert(2, strPtr("foo"))
	r.Insert(3, strPtr("foo-1"))
	svc := New(r)

	report, err := svc.Backfill(ctx, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Collisions)

	res, err := svc.Verify(ctx)
	require.NoError(t, err)
	require.False(t, res.OK())
	require.Len(t, res.Duplicates, 1)
	require.Equal(t, "foo-1", res.Duplicates[0].URLSubject)
	require.Equal(t, 2, res.Duplicates[0].Count)
}

func TestEnsureIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := seededRepository()
	svc := New(r)

	require.NoError(t, svc.EnsureIndex(ctx, true))
	require.False(t, r.HasIndex())

	require.Error(t, svc.EnsureIndex(ctx, false))

	_, err := svc.Backfill(ctx, Options{})
	require.NoError(t, err)
	require.NoError(t, svc.EnsureIndex(ctx, false))
	require.True(t, r.HasIndex())
}

func TestBackfillEmptyTable(t *testing.T) {
	t.Parallel()

	report, err := New(repo.NewMemoryRepository()).Backfill(context.Background(), Options{})
	require.NoError(t, err)
	require.Zero(t, report.Rows)
	require.Zero(t, report.Batches)
	require.True(t, report.ColumnCreated)
}
