package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/sankhya-backend-go/internal/database"
	"github.com/jengzang/sankhya-backend-go/internal/models"
)

// ErrRunNotFound is returned when no run matches a lookup
var ErrRunNotFound = errors.New("regeneration run not found")

// KeepArtifacts is how many completed runs keep their artifact blob
const KeepArtifacts = 5

const timeLayout = time.RFC3339Nano

const runColumns = `seq, id, triggered_by, status, input_digest, district_count,
	warning_count, error_message, started_at, completed_at`

// RunRepository handles database operations for regeneration runs
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a running run and fills in its sequence number
func (r *RunRepository) Create(ctx context.Context, run *models.RegenerationRun) error {
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	query := `
		INSERT INTO regeneration_runs (id, triggered_by, status, started_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, run.ID, run.Trigger, run.Status, run.StartedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to create regeneration run: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.Seq = seq
	return nil
}

// MarkCompleted stores the artifact of a finished run and drops the
// artifacts of runs older than the last KeepArtifacts completed ones
func (r *RunRepository) MarkCompleted(ctx context.Context, run *models.RegenerationRun, artifact []byte) error {
	now := time.Now().UTC()
	err := database.Transaction(r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE regeneration_runs
			SET status = ?, input_digest = ?, artifact = ?, district_count = ?,
				warning_count = ?, completed_at = ?
			WHERE id = ?
		`
		result, err := tx.ExecContext(ctx, query,
			models.RunStatusCompleted,
			run.InputDigest,
			artifact,
			run.DistrictCount,
			run.WarningCount,
			now.Format(timeLayout),
			run.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark run as completed: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return ErrRunNotFound
		}

		prune := `
			UPDATE regeneration_runs
			SET artifact = NULL
			WHERE status = ? AND artifact IS NOT NULL AND seq NOT IN (
				SELECT seq FROM regeneration_runs
				WHERE status = ?
				ORDER BY seq DESC
				LIMIT ?
			)
		`
		if _, err := tx.ExecContext(ctx, prune, models.RunStatusCompleted, models.RunStatusCompleted, KeepArtifacts); err != nil {
			return fmt.Errorf("failed to prune old artifacts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	run.Status = models.RunStatusCompleted
	run.CompletedAt = &now
	return nil
}

// MarkFailed marks a run as failed with an error message
func (r *RunRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE regeneration_runs
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, models.RunStatusFailed, errorMessage, time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its id
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.RegenerationRun, error) {
	query := `SELECT ` + runColumns + ` FROM regeneration_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get regeneration run: %w", err)
	}

	return run, nil
}

// LatestCompleted returns the newest completed run that still has its artifact
func (r *RunRepository) LatestCompleted(ctx context.Context) (*models.RegenerationRun, []byte, error) {
	query := `
		SELECT ` + runColumns + `, artifact
		FROM regeneration_runs
		WHERE status = ? AND artifact IS NOT NULL
		ORDER BY seq DESC
		LIMIT 1
	`

	var artifact []byte
	run, err := scanRun(r.db.QueryRowContext(ctx, query, models.RunStatusCompleted), &artifact)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrRunNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get latest completed run: %w", err)
	}

	return run, artifact, nil
}

// List retrieves runs newest first with an optional status filter
func (r *RunRepository) List(ctx context.Context, filter models.RunFilter) ([]*models.RegenerationRun, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM regeneration_runs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count regeneration runs: %w", err)
	}

	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := "SELECT " + runColumns + " FROM regeneration_runs" + where + " ORDER BY seq DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list regeneration runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.RegenerationRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan regeneration run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate regeneration runs: %w", err)
	}

	return runs, total, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner, extra ...interface{}) (*models.RegenerationRun, error) {
	run := &models.RegenerationRun{}
	var startedAt string
	var completedAt sql.NullString

	dest := []interface{}{
		&run.Seq,
		&run.ID,
		&run.Trigger,
		&run.Status,
		&run.InputDigest,
		&run.DistrictCount,
		&run.WarningCount,
		&run.ErrorMessage,
		&startedAt,
		&completedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t

	if completedAt.Valid {
		t, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at %q: %w", completedAt.String, err)
		}
		run.CompletedAt = &t
	}

	return run, nil
}
