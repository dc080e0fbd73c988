package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"artistry/internal/domain"
	"artistry/internal/infra"
	"artistry/internal/sqlinline"
)

// sqliteTimeLayout has fixed width so created_at sorts lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func statement(query string) string {
	_, body, err := infra.StripMarker(query)
	if err != nil {
		panic(fmt.Sprintf("sqlinline: %v", err))
	}
	return body
}

func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// NewSQLiteStores builds the sqlite repositories on one database handle.
func NewSQLiteStores(db *sql.DB) domain.Stores {
	jobs := NewJobRepositorySQLite(db)
	return domain.Stores{
		Mode:     infra.PersistenceSQLite,
		Jobs:     jobs,
		Claimer:  jobs,
		Sessions: NewSessionRepositorySQLite(db),
		Results:  NewResultRepositorySQLite(db),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// JobRepositorySQLite implements domain.JobRepository and domain.JobClaimer on sqlite.
type JobRepositorySQLite struct {
	db *sql.DB
}

func NewJobRepositorySQLite(db *sql.DB) *JobRepositorySQLite {
	return &JobRepositorySQLite{db: db}
}

func (r *JobRepositorySQLite) Create(ctx context.Context, job *domain.Job) error {
	prepareJob(job)
	ts := now()
	if _, err := r.db.ExecContext(ctx, statement(sqlinline.QSQLiteInsertJob),
		job.ID, string(job.Status), string(job.Request), formatTime(ts), formatTime(ts)); err != nil {
		return err
	}
	job.CreatedAt, job.UpdatedAt = ts, ts
	return nil
}

func (r *JobRepositorySQLite) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg *string, resultJSON []byte) error {
	from := domain.SourceStatuses(status)
	if len(from) == 0 {
		return domain.ErrInvalidTransition
	}
	var msg any
	if errMsg != nil {
		msg = *errMsg
	}
	res, err := r.db.ExecContext(ctx, statement(sqlinline.QSQLiteUpdateJobStatus),
		string(status), msg, nullableText(resultJSON), formatTime(now()),
		jobID, string(from[0]), string(from[len(from)-1]))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var count int
		if err := r.db.QueryRowContext(ctx, statement(sqlinline.QSQLiteJobExists), jobID).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *JobRepositorySQLite) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	return scanJobSQLite(r.db.QueryRowContext(ctx, statement(sqlinline.QSQLiteSelectJob), jobID))
}

func (r *JobRepositorySQLite) ClaimPending(ctx context.Context) (*domain.Job, error) {
	return scanJobSQLite(r.db.QueryRowContext(ctx, statement(sqlinline.QSQLiteClaimPendingJob), formatTime(now())))
}

func scanJobSQLite(row rowScanner) (*domain.Job, error) {
	var (
		job              domain.Job
		status, request  string
		result, errMsg   sql.NullString
		created, updated string
	)
	if err := row.Scan(&job.ID, &status, &request, &result, &errMsg, &created, &updated); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	job.Request = copyJSON([]byte(request))
	if result.Valid {
		job.Result = copyJSON([]byte(result.String))
	}
	if errMsg.Valid {
		msg := errMsg.String
		job.Error = &msg
	}
	var err error
	if job.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &job, nil
}

// SessionRepositorySQLite implements domain.SessionRepository on sqlite.
type SessionRepositorySQLite struct {
	db *sql.DB
}

func NewSessionRepositorySQLite(db *sql.DB) *SessionRepositorySQLite {
	return &SessionRepositorySQLite{db: db}
}

func (r *SessionRepositorySQLite) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	items, err := marshalItems(session.ItemReplacement)
	if err != nil {
		return err
	}
	ts := now()
	if _, err := r.db.ExecContext(ctx, statement(sqlinline.QSQLiteInsertSession),
		session.ID, string(session.BudgetRange), session.DesignTips, string(items), formatTime(ts), formatTime(ts)); err != nil {
		return err
	}
	session.CreatedAt, session.UpdatedAt = ts, ts
	return nil
}

func (r *SessionRepositorySQLite) Update(ctx context.Context, session *domain.Session) error {
	items, err := marshalItems(session.ItemReplacement)
	if err != nil {
		return err
	}
	ts := now()
	res, err := r.db.ExecContext(ctx, statement(sqlinline.QSQLiteUpdateSession),
		string(session.BudgetRange), session.DesignTips, string(items), formatTime(ts), session.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	stored, err := r.GetByID(ctx, session.ID)
	if err != nil {
		return err
	}
	session.CreatedAt, session.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (r *SessionRepositorySQLite) GetByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, statement(sqlinline.QSQLiteSelectSession), sessionID)
	var (
		session          domain.Session
		budget, items    string
		created, updated string
	)
	if err := row.Scan(&session.ID, &budget, &session.DesignTips, &items, &created, &updated); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	session.BudgetRange = domain.BudgetTier(budget)
	if err := unmarshalItems([]byte(items), &session.ItemReplacement); err != nil {
		return nil, err
	}
	var err error
	if session.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if session.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &session, nil
}

// ResultRepositorySQLite implements domain.ResultRepository on sqlite.
type ResultRepositorySQLite struct {
	db *sql.DB
}

func NewResultRepositorySQLite(db *sql.DB) *ResultRepositorySQLite {
	return &ResultRepositorySQLite{db: db}
}

func (r *ResultRepositorySQLite) Save(ctx context.Context, result *domain.StoredResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	ts := now()
	if _, err := r.db.ExecContext(ctx, statement(sqlinline.QSQLiteInsertResult),
		result.ID, result.SessionID, string(result.Payload), formatTime(ts)); err != nil {
		return err
	}
	result.CreatedAt = ts
	return nil
}

func (r *ResultRepositorySQLite) GetByID(ctx context.Context, resultID string) (*domain.StoredResult, error) {
	row := r.db.QueryRowContext(ctx, statement(sqlinline.QSQLiteSelectResult), resultID)
	var (
		res              domain.StoredResult
		payload, created string
	)
	if err := row.Scan(&res.ID, &res.SessionID, &payload, &created); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	res.Payload = []byte(payload)
	var err error
	if res.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &res, nil
}

var (
	_ domain.JobRepository     = (*JobRepositorySQLite)(nil)
	_ domain.JobClaimer        = (*JobRepositorySQLite)(nil)
	_ domain.SessionRepository = (*SessionRepositorySQLite)(nil)
	_ domain.ResultRepository  = (*ResultRepositorySQLite)(nil)
)
