package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"artistry/internal/domain"
	"artistry/internal/infra"
	"artistry/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository and domain.JobClaimer.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new job record. Missing ids and statuses are filled in.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	prepareJob(job)
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJob, job.ID, string(job.Status), []byte(job.Request))
	return row.Scan(&job.CreatedAt, &job.UpdatedAt)
}

// UpdateStatus moves a job along the state machine with a conditional update.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg *string, resultJSON []byte) error {
	from := domain.SourceStatuses(status)
	if len(from) == 0 {
		return domain.ErrInvalidTransition
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateJobStatus,
		jobID,
		string(status),
		errMsg,
		nullableBytes(resultJSON),
		string(from[0]),
		string(from[len(from)-1]),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, jobID); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	return scanJobPG(r.sql.QueryRow(ctx, sqlinline.QSelectJob, jobID))
}

// ClaimPending moves the oldest pending job to running and returns it.
// ErrNotFound means the queue is empty.
func (r *JobRepositoryPG) ClaimPending(ctx context.Context) (*domain.Job, error) {
	return scanJobPG(r.sql.QueryRow(ctx, sqlinline.QClaimPendingJob))
}

func scanJobPG(row pgx.Row) (*domain.Job, error) {
	var (
		job     domain.Job
		status  string
		request []byte
		result  []byte
	)
	if err := row.Scan(&job.ID, &status, &request, &result, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	job.Request = copyJSON(request)
	job.Result = copyJSON(result)
	return &job, nil
}

func prepareJob(job *domain.Job) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = domain.JobStatusPending
	}
	if len(job.Request) == 0 {
		job.Request = json.RawMessage(`{}`)
	}
}

func copyJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func now() time.Time {
	return time.Now().UTC()
}

var (
	_ domain.JobRepository = (*JobRepositoryPG)(nil)
	_ domain.JobClaimer    = (*JobRepositoryPG)(nil)
)
