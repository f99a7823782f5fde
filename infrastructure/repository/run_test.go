package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/dv360-sheets-sync/infrastructure/database/sqlite"
	"github.com/vfg2006/dv360-sheets-sync/internal/config"
	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
)

func newTestRepository(t *testing.T) RunRepository {
	t.Helper()

	conn, err := sqlite.NewConnection(context.Background(), config.Database{
		File: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewRunRepository(conn)
}

func newTestRun(jobID string) *domain.Run {
	return &domain.Run{
		JobID:        jobID,
		AdvertiserID: "164337",
		SheetName:    "Data",
		Status:       domain.RunStatusSubmitted,
		Request:      domain.NewReportRequest("164337", "", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
	}
}

func TestRunRepository_SaveAndGetByJobID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := newTestRun("92112")
	require.NoError(t, repo.Save(ctx, run))
	assert.NotEmpty(t, run.ID)

	found, err := repo.GetByJobID(ctx, "92112")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, run.ID, found.ID)
	assert.Equal(t, "92112", found.JobID)
	assert.Equal(t, "164337", found.AdvertiserID)
	assert.Equal(t, "Data", found.SheetName)
	assert.Equal(t, domain.RunStatusSubmitted, found.Status)
	assert.Empty(t, found.ArtifactURL)
	assert.Zero(t, found.RowCount)
	assert.Equal(t, run.Request, found.Request)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestRunRepository_Save_ReplacesExistingJobRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := newTestRun("92112")
	require.NoError(t, repo.Save(ctx, first))

	second := newTestRun("92112")
	second.SheetName = "Updated"
	require.NoError(t, repo.Save(ctx, second))

	found, err := repo.GetByJobID(ctx, "92112")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, second.ID, found.ID)
	assert.Equal(t, "Updated", found.SheetName)
	assert.NotEqual(t, first.ID, found.ID)
}

func TestRunRepository_GetByJobID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	found, err := repo.GetByJobID(context.Background(), "absent")

	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRunRepository_UpdateStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestRun("92112")))
	require.NoError(t, repo.UpdateStatus(ctx, "92112", domain.RunStatusFailed))

	found, err := repo.GetByJobID(ctx, "92112")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, found.Status)
}

func TestRunRepository_SetArtifact(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestRun("92112")))
	require.NoError(t, repo.SetArtifact(ctx, "92112", "https://storage/report.csv"))

	found, err := repo.GetByJobID(ctx, "92112")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusReady, found.Status)
	assert.Equal(t, "https://storage/report.csv", found.ArtifactURL)
}

func TestRunRepository_MarkPublished(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestRun("92112")))
	require.NoError(t, repo.MarkPublished(ctx, "92112", 42))

	found, err := repo.GetByJobID(ctx, "92112")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPublished, found.Status)
	assert.Equal(t, 42, found.RowCount)
}

func TestRunRepository_Latest(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestRun("first")))

	// Distinct creation timestamps so ordering is deterministic.
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, repo.Save(ctx, newTestRun("second")))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "second", latest.JobID)
}

func TestRunRepository_Latest_Empty(t *testing.T) {
	repo := newTestRepository(t)

	latest, err := repo.Latest(context.Background())

	require.NoError(t, err)
	assert.Nil(t, latest)
}
