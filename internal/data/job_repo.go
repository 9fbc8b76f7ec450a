package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data/pgxutil"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

// jobColumns is the canonical column list for job queries. legacy_payload is
// scanned alongside so imported rows can be normalized at the boundary.
const jobColumns = `
	id, title, service_type, household_id, worker_id, worker_name, package_id,
	gross_amount, currency, frequency, location, status,
	scheduled_date, scheduled_time, pending_reschedule, legacy_payload,
	created_at, completed_at, cancelled_at, updated_at`

const applicationColumns = `
	id, job_id, worker_id, worker_name, skills, rating, cover_letter, status, applied_at`

// JobRepoConfig holds configuration options for JobRepo.
type JobRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo is the PostgreSQL-backed job record store.
//
// Every status transition is a conditional write guarded by the expected prior
// status in the WHERE clause. The guard is what makes concurrent commits safe:
// two racing assignments both issue the UPDATE, the row matches exactly once,
// and the loser sees zero rows affected.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

var _ core.JobRepository = (*JobRepo)(nil)

// NewJobRepo creates a new JobRepo with the given configuration.
func NewJobRepo(db *sql.DB, cfg JobRepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

// jobRow is the scan target for jobColumns. Conversion to model.Job applies
// legacy-payload normalization exactly once, here.
type jobRow struct {
	model.Job
	LegacyPayload []byte `db:"legacy_payload"`
}

func (r jobRow) toModel() *model.Job {
	job := r.Job
	if job.GrossAmount == 0 {
		if gross, ok := normalizeLegacyGross(r.LegacyPayload); ok {
			job.GrossAmount = gross
		}
	}
	return &job
}

// Create inserts a new job in pending status.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := r.timeProvider.Now().UTC()
	job := &model.Job{
		ID:          uuid.NewString(),
		Title:       req.Title,
		ServiceType: req.ServiceType,
		HouseholdID: req.HouseholdID,
		PackageID:   req.PackageID,
		GrossAmount: req.GrossAmount,
		Currency:    req.Currency,
		Frequency:   req.Frequency,
		Location:    req.Location,
		Status:      model.JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO jobs (
			id, title, service_type, household_id, package_id,
			gross_amount, currency, frequency, location, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.Title, job.ServiceType, job.HouseholdID, job.PackageID,
		job.GrossAmount, job.Currency, job.Frequency, job.Location, job.Status,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("create job: %w", err))
	}
	return job, nil
}

// GetByID fetches a single job by id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var row jobRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[jobRow])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return row.toModel(), nil
}

// List returns jobs matching the given filters, newest first.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if opts.Status != nil {
		add("status = $%d", *opts.Status)
	}
	if opts.ServiceType != nil {
		add("service_type = $%d", *opts.ServiceType)
	}
	if opts.HouseholdID != nil {
		add("household_id = $%d", *opts.HouseholdID)
	}
	if opts.WorkerID != nil {
		add("worker_id = $%d", *opts.WorkerID)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var jobRows []jobRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		jobRows, err = pgx.CollectRows(rows, pgx.RowToStructByName[jobRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]*model.Job, 0, len(jobRows))
	for _, row := range jobRows {
		jobs = append(jobs, row.toModel())
	}
	return jobs, nil
}

// Stats returns per-status job counts.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var stats model.JobStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'assigned'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM jobs`,
	).Scan(&stats.Pending, &stats.Open, &stats.Assigned, &stats.Completed, &stats.Cancelled)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return &stats, nil
}

// guardedUpdate runs a status-guarded UPDATE and reports whether the guard
// matched a row.
func (r *JobRepo) guardedUpdate(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Approve transitions pending → open.
func (r *JobRepo) Approve(ctx context.Context, id string) (bool, error) {
	return r.guardedUpdate(ctx, `
		UPDATE jobs SET status = 'open', updated_at = $2
		WHERE id = $1 AND status = 'pending'`,
		id, r.timeProvider.Now().UTC(),
	)
}

// Assign transitions open → assigned, writing the worker reference in the same
// statement. The worker_id IS NULL guard is redundant with the status guard
// but keeps the invariant explicit in the database.
func (r *JobRepo) Assign(ctx context.Context, params core.AssignParams) (bool, error) {
	return r.guardedUpdate(ctx, `
		UPDATE jobs SET status = 'assigned', worker_id = $2, worker_name = $3, updated_at = $4
		WHERE id = $1 AND status = 'open' AND worker_id IS NULL`,
		params.JobID, params.WorkerID, params.WorkerName, r.timeProvider.Now().UTC(),
	)
}

// Complete transitions assigned → completed.
func (r *JobRepo) Complete(ctx context.Context, id string, completedAt time.Time) (bool, error) {
	return r.guardedUpdate(ctx, `
		UPDATE jobs SET status = 'completed', completed_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'assigned'`,
		id, completedAt.UTC(),
	)
}

// Cancel transitions any non-terminal status → cancelled.
func (r *JobRepo) Cancel(ctx context.Context, id string, cancelledAt time.Time) (bool, error) {
	return r.guardedUpdate(ctx, `
		UPDATE jobs SET status = 'cancelled', cancelled_at = $2, updated_at = $2
		WHERE id = $1 AND status IN ('pending', 'open', 'assigned')`,
		id, cancelledAt.UTC(),
	)
}

// Reschedule updates the schedule of an assigned job and raises the
// pending-reschedule flag. Status stays assigned.
func (r *JobRepo) Reschedule(ctx context.Context, params core.RescheduleParams) (bool, error) {
	return r.guardedUpdate(ctx, `
		UPDATE jobs SET scheduled_date = $2, scheduled_time = $3,
			pending_reschedule = TRUE, updated_at = $4
		WHERE id = $1 AND status = 'assigned'`,
		params.JobID, params.Date, params.Time, r.timeProvider.Now().UTC(),
	)
}

// Delete removes a job and its applications (admin hard delete).
func (r *JobRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("delete job %s: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// AddApplication inserts a worker's application inside a transaction that
// re-checks the job is still open. The applications_job_worker unique index
// rejects a second application from the same worker; that surfaces as a
// Conflict error.
func (r *JobRepo) AddApplication(ctx context.Context, app *model.Application) error {
	skills, err := json.Marshal(app.Skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}

	txErr := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var status model.JobStatus
			err := tx.QueryRow(ctx,
				`SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, app.JobID,
			).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrJobNotFound
			}
			if err != nil {
				return fmt.Errorf("lock job row: %w", err)
			}
			if status != model.JobStatusOpen {
				return ErrJobNotOpen
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO applications (`+applicationColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				app.ID, app.JobID, app.WorkerID, app.WorkerName, skills,
				app.Rating, app.CoverLetter, app.Status, app.AppliedAt,
			)
			return err
		},
	})
	if txErr != nil {
		if errors.Is(txErr, ErrJobNotFound) || errors.Is(txErr, ErrJobNotOpen) {
			return txErr
		}
		return apperrors.MapDBError(txErr)
	}
	return nil
}

// applicationRow is the scan target for applicationColumns. Skills are stored
// as a jsonb array, so the row keeps the raw bytes and conversion unmarshals.
type applicationRow struct {
	ID          string                  `db:"id"`
	JobID       string                  `db:"job_id"`
	WorkerID    string                  `db:"worker_id"`
	WorkerName  string                  `db:"worker_name"`
	SkillsRaw   []byte                  `db:"skills"`
	Rating      float64                 `db:"rating"`
	CoverLetter *string                 `db:"cover_letter"`
	Status      model.ApplicationStatus `db:"status"`
	AppliedAt   time.Time               `db:"applied_at"`
}

func (r applicationRow) toModel() (*model.Application, error) {
	app := &model.Application{
		ID:          r.ID,
		JobID:       r.JobID,
		WorkerID:    r.WorkerID,
		WorkerName:  r.WorkerName,
		Rating:      r.Rating,
		CoverLetter: r.CoverLetter,
		Status:      r.Status,
		AppliedAt:   r.AppliedAt,
	}
	if len(r.SkillsRaw) > 0 {
		if err := json.Unmarshal(r.SkillsRaw, &app.Skills); err != nil {
			return nil, fmt.Errorf("unmarshal application skills: %w", err)
		}
	}
	return app, nil
}

// ListApplications returns the applications for a job, oldest first.
func (r *JobRepo) ListApplications(ctx context.Context, jobID string) ([]*model.Application, error) {
	var appRows []applicationRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+applicationColumns+` FROM applications
			WHERE job_id = $1 ORDER BY applied_at ASC`, jobID)
		if err != nil {
			return err
		}
		defer rows.Close()
		appRows, err = pgx.CollectRows(rows, pgx.RowToStructByName[applicationRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list applications for job %s: %w", jobID, err)
	}

	apps := make([]*model.Application, 0, len(appRows))
	for _, row := range appRows {
		app, convErr := row.toModel()
		if convErr != nil {
			return nil, convErr
		}
		apps = append(apps, app)
	}
	return apps, nil
}
