package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data/pgxutil"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

const workerColumns = `
	id, full_name, phone, email, status, skills, rating, review_count,
	hourly_rate, profile_picture_url, created_at, updated_at`

// WorkerRepo is the PostgreSQL-backed worker directory.
type WorkerRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.WorkerRepository = (*WorkerRepo)(nil)

// NewWorkerRepo creates a new WorkerRepo.
func NewWorkerRepo(db *sql.DB) *WorkerRepo {
	return &WorkerRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewWorkerRepoWithTimeProvider creates a new WorkerRepo with a custom time provider.
func NewWorkerRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *WorkerRepo {
	return &WorkerRepo{DB: db, timeProvider: tp}
}

// workerRow is the scan target for workerColumns. Skills are stored as a
// jsonb array of service types.
type workerRow struct {
	ID                string             `db:"id"`
	FullName          string             `db:"full_name"`
	Phone             string             `db:"phone"`
	Email             *string            `db:"email"`
	Status            model.WorkerStatus `db:"status"`
	SkillsRaw         []byte             `db:"skills"`
	Rating            float64            `db:"rating"`
	ReviewCount       int                `db:"review_count"`
	HourlyRate        *int64             `db:"hourly_rate"`
	ProfilePictureURL *string            `db:"profile_picture_url"`
	CreatedAt         time.Time          `db:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at"`
}

func (r workerRow) toModel() (*model.Worker, error) {
	w := &model.Worker{
		ID:                r.ID,
		FullName:          r.FullName,
		Phone:             r.Phone,
		Email:             r.Email,
		Status:            r.Status,
		Rating:            r.Rating,
		ReviewCount:       r.ReviewCount,
		HourlyRate:        r.HourlyRate,
		ProfilePictureURL: r.ProfilePictureURL,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if len(r.SkillsRaw) > 0 {
		if err := json.Unmarshal(r.SkillsRaw, &w.Skills); err != nil {
			return nil, fmt.Errorf("unmarshal worker skills: %w", err)
		}
	}
	return w, nil
}

// Create registers a new worker in pending status.
func (r *WorkerRepo) Create(ctx context.Context, req *model.CreateWorkerRequest) (*model.Worker, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	skills, err := json.Marshal(req.Skills)
	if err != nil {
		return nil, fmt.Errorf("marshal skills: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	worker := &model.Worker{
		ID:         uuid.NewString(),
		FullName:   req.FullName,
		Phone:      req.Phone,
		Email:      req.Email,
		Status:     model.WorkerStatusPending,
		Skills:     req.Skills,
		HourlyRate: req.HourlyRate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO workers (
			id, full_name, phone, email, status, skills, hourly_rate,
			rating, review_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8, $9)`,
		worker.ID, worker.FullName, worker.Phone, worker.Email, worker.Status,
		skills, worker.HourlyRate, worker.CreatedAt, worker.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("create worker: %w", err))
	}
	return worker, nil
}

// GetByID fetches a single worker profile by id.
func (r *WorkerRepo) GetByID(ctx context.Context, id string) (*model.Worker, error) {
	var row workerRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[workerRow])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get worker %s: %w", id, err)
	}
	return row.toModel()
}

// List returns workers matching the given filters.
func (r *WorkerRepo) List(ctx context.Context, opts model.WorkerListOptions) ([]*model.Worker, error) {
	var (
		conds []string
		args  []any
	)
	if opts.Status != nil {
		args = append(args, *opts.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if opts.Skill != nil {
		args = append(args, string(*opts.Skill))
		conds = append(conds, fmt.Sprintf("skills @> jsonb_build_array($%d::text)", len(args)))
	}

	query := `SELECT ` + workerColumns + ` FROM workers`
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

	return r.queryWorkers(ctx, query, args...)
}

// FindEligible returns active workers whose skill set covers the service
// type, ordered by ascending id so downstream ranking starts deterministic.
func (r *WorkerRepo) FindEligible(ctx context.Context, serviceType model.ServiceType) ([]*model.Worker, error) {
	return r.queryWorkers(ctx, `
		SELECT `+workerColumns+` FROM workers
		WHERE status = 'active' AND skills @> jsonb_build_array($1::text)
		ORDER BY id ASC`,
		string(serviceType),
	)
}

func (r *WorkerRepo) queryWorkers(ctx context.Context, query string, args ...any) ([]*model.Worker, error) {
	var workerRows []workerRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		workerRows, err = pgx.CollectRows(rows, pgx.RowToStructByName[workerRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}

	workers := make([]*model.Worker, 0, len(workerRows))
	for _, row := range workerRows {
		w, convErr := row.toModel()
		if convErr != nil {
			return nil, convErr
		}
		workers = append(workers, w)
	}
	return workers, nil
}

func (r *WorkerRepo) guardedUpdate(ctx context.Context, id string, from, to model.WorkerStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE workers SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		id, from, to, r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Approve transitions pending → active.
func (r *WorkerRepo) Approve(ctx context.Context, id string) (bool, error) {
	return r.guardedUpdate(ctx, id, model.WorkerStatusPending, model.WorkerStatusActive)
}

// Suspend transitions active → suspended.
func (r *WorkerRepo) Suspend(ctx context.Context, id string) (bool, error) {
	return r.guardedUpdate(ctx, id, model.WorkerStatusActive, model.WorkerStatusSuspended)
}

// Reinstate transitions suspended → active.
func (r *WorkerRepo) Reinstate(ctx context.Context, id string) (bool, error) {
	return r.guardedUpdate(ctx, id, model.WorkerStatusSuspended, model.WorkerStatusActive)
}

// Delete removes a worker profile (admin hard delete).
func (r *WorkerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM workers WHERE id = $1`, id)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("delete worker %s: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrWorkerNotFound
	}
	return nil
}
