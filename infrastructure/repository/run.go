package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/database/sqlite"
	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
	"github.com/vfg2006/dv360-sheets-sync/pkg/utils"
)

const runsTable = "runs"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RunRepository interface {
	Save(ctx context.Context, run *domain.Run) error
	UpdateStatus(ctx context.Context, jobID string, status domain.RunStatus) error
	SetArtifact(ctx context.Context, jobID string, artifactURL string) error
	MarkPublished(ctx context.Context, jobID string, rowCount int) error
	GetByJobID(ctx context.Context, jobID string) (*domain.Run, error)
	Latest(ctx context.Context) (*domain.Run, error)
}

type runRepository struct {
	conn sqlite.Conn
}

func NewRunRepository(conn sqlite.Conn) RunRepository {
	return &runRepository{
		conn: conn,
	}
}

// Save records the run, replacing any previous record for the same job so a
// resubmitted or resumed job keeps a single history entry.
func (r *runRepository) Save(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		id, err := utils.GenerateID()
		if err != nil {
			return fmt.Errorf("failed to generate run id: %w", err)
		}
		run.ID = id
	}

	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	request, err := json.Marshal(run.Request)
	if err != nil {
		return fmt.Errorf("failed to serialize report request: %w", err)
	}

	deleteQuery, deleteArgs, err := squirrel.
		Delete(runsTable).
		Where(squirrel.Eq{"job_id": run.JobID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	insertQuery, insertArgs, err := squirrel.
		Insert(runsTable).
		Columns("id", "job_id", "advertiser_id", "sheet_name", "status", "artifact_url", "row_count", "request", "created_at", "updated_at").
		Values(run.ID, run.JobID, run.AdvertiserID, run.SheetName, string(run.Status), run.ArtifactURL, run.RowCount, string(request), run.CreatedAt, run.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("failed to drop previous run record: %w", err)
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}

		return nil
	})
}

func (r *runRepository) UpdateStatus(ctx context.Context, jobID string, status domain.RunStatus) error {
	return r.update(ctx, jobID, map[string]interface{}{
		"status": string(status),
	})
}

func (r *runRepository) SetArtifact(ctx context.Context, jobID string, artifactURL string) error {
	return r.update(ctx, jobID, map[string]interface{}{
		"status":       string(domain.RunStatusReady),
		"artifact_url": artifactURL,
	})
}

func (r *runRepository) MarkPublished(ctx context.Context, jobID string, rowCount int) error {
	return r.update(ctx, jobID, map[string]interface{}{
		"status":    string(domain.RunStatusPublished),
		"row_count": rowCount,
	})
}

func (r *runRepository) update(ctx context.Context, jobID string, values map[string]interface{}) error {
	values["updated_at"] = time.Now().UTC()

	query, args, err := squirrel.
		Update(runsTable).
		SetMap(values).
		Where(squirrel.Eq{"job_id": jobID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update run for job %s: %w", jobID, err)
	}

	return nil
}

func (r *runRepository) GetByJobID(ctx context.Context, jobID string) (*domain.Run, error) {
	query, args, err := r.selectRuns().
		Where(squirrel.Eq{"job_id": jobID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.scanRun(r.conn.QueryRowContext(ctx, query, args...))
}

func (r *runRepository) Latest(ctx context.Context) (*domain.Run, error) {
	query, args, err := r.selectRuns().
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.scanRun(r.conn.QueryRowContext(ctx, query, args...))
}

func (r *runRepository) selectRuns() squirrel.SelectBuilder {
	return squirrel.
		Select("id", "job_id", "advertiser_id", "sheet_name", "status", "artifact_url", "row_count", "request", "created_at", "updated_at").
		From(runsTable)
}

func (r *runRepository) scanRun(row *sql.Row) (*domain.Run, error) {
	var (
		run     domain.Run
		status  string
		request string
	)

	err := row.Scan(
		&run.ID,
		&run.JobID,
		&run.AdvertiserID,
		&run.SheetName,
		&status,
		&run.ArtifactURL,
		&run.RowCount,
		&request,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = domain.RunStatus(status)

	if err := json.Unmarshal([]byte(request), &run.Request); err != nil {
		return nil, fmt.Errorf("failed to deserialize report request: %w", err)
	}

	return &run, nil
}
