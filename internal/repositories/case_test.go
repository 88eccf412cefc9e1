package repositories_test

import (
	"context"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/myrjola/dfircase/internal/sqlite"
	"github.com/myrjola/dfircase/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
	"time"
)

// newCaseRepository creates a repository backed by a fresh in-memory database.
func newCaseRepository(t *testing.T) *repositories.CaseRepository {
	t.Helper()
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)
	dbs, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})
	return repositories.NewCaseRepository(dbs, logger)
}

func TestCaseRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newCaseRepository(t)

	c := models.NewCase("INC-2024-001", "J. Doe", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	c.SetFinding("memory_dump", "Acquired with WinPmem")
	c.SetStepData(models.StepPackers, models.PackerDetection{IsPacked: true, PackerName: "UPX"})
	_, ok := c.AddTask("Collect prefetch")
	require.True(t, ok)
	require.NoError(t, repo.Create(ctx, &c))

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c, got)

	// Ids are unique.
	require.Error(t, repo.Create(ctx, &c))
}

func TestCaseRepository_GetMissing(t *testing.T) {
	repo := newCaseRepository(t)

	_, err := repo.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCaseRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newCaseRepository(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, caseID := range []string{"A", "B", "C"} {
		c := models.NewCase(caseID, "analyst", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, &c))
	}

	cases, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	require.Equal(t, []string{"C", "B", "A"}, []string{cases[0].CaseID, cases[1].CaseID, cases[2].CaseID})

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestCaseRepository_PutKeepsCreationTime(t *testing.T) {
	ctx := context.Background()
	repo := newCaseRepository(t)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := models.NewCase("INC-1", "analyst", created)
	require.NoError(t, repo.Put(ctx, &c))

	c.CaseID = "INC-1-renamed"
	c.CreatedAt = created.Add(time.Hour)
	require.NoError(t, repo.Put(ctx, &c))

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "INC-1-renamed", got.CaseID)
	require.Equal(t, created, got.CreatedAt)
}

func TestCaseRepository_PutAll(t *testing.T) {
	ctx := context.Background()
	repo := newCaseRepository(t)

	now := time.Now()
	existing := models.NewCase("OLD", "analyst", now)
	require.NoError(t, repo.Create(ctx, &existing))

	existing.AnalystName = "replaced"
	imported := []models.Case{existing, models.NewCase("NEW", "analyst", now)}
	require.NoError(t, repo.PutAll(ctx, imported))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	got, err := repo.Get(ctx, existing.ID)
	require.NoError(t, err)
	require.Equal(t, "replaced", got.AnalystName)
}

func TestCaseRepository_Mutate(t *testing.T) {
	ctx := context.Background()
	repo := newCaseRepository(t)

	c := models.NewCase("INC-1", "analyst", time.Now())
	require.NoError(t, repo.Create(ctx, &c))

	t.Run("applies change", func(t *testing.T) {
		updated, written, err := repo.Mutate(ctx, c.ID, func(c *models.Case) bool {
			return c.SetStatus(models.StatusClosed)
		})
		require.NoError(t, err)
		require.True(t, written)
		require.Equal(t, models.StatusClosed, updated.Status)

		got, err := repo.Get(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusClosed, got.Status)
	})

	t.Run("skips write when nothing changed", func(t *testing.T) {
		_, written, err := repo.Mutate(ctx, c.ID, func(c *models.Case) bool {
			return c.SetStatus("Archived")
		})
		require.NoError(t, err)
		require.False(t, written)
	})

	t.Run("missing case", func(t *testing.T) {
		called := false
		_, _, err := repo.Mutate(ctx, "missing", func(*models.Case) bool {
			called = true
			return true
		})
		require.ErrorIs(t, err, repositories.ErrNotFound)
		require.False(t, called)
	})
}

func TestCaseRepository_ConcurrentMutationsDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	repo := newCaseRepository(t)

	c := models.NewCase("INC-1", "analyst", time.Now())
	require.NoError(t, repo.Create(ctx, &c))

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.Mutate(ctx, c.ID, func(c *models.Case) bool {
				_, ok := c.AddTask("task")
				return ok
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.AnalystData.Tasks, writers)
}
